package inmemory

import (
	"fmt"
	"os"

	"github.com/sharetube/watchparty/internal/domain"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML seed format of the in-memory provider.
type Catalog struct {
	Movies []CatalogMovie  `yaml:"movies"`
	Series []CatalogSeries `yaml:"series"`
}

type CatalogMovie struct {
	Id    int64  `yaml:"id"`
	Title string `yaml:"title"`
}

type CatalogSeries struct {
	Id      int64           `yaml:"id"`
	Title   string          `yaml:"title"`
	Seasons []CatalogSeason `yaml:"seasons"`
}

type CatalogSeason struct {
	Id       int64            `yaml:"id"`
	Number   int              `yaml:"number"`
	Title    string           `yaml:"title"`
	Episodes []CatalogEpisode `yaml:"episodes"`
}

type CatalogEpisode struct {
	Id     int64  `yaml:"id"`
	Number int    `yaml:"number"`
	Title  string `yaml:"title"`
}

func LoadCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return catalog, nil
}

// Load adds every entry of the catalog to the repo.
func (r *repo) Load(catalog Catalog) {
	for _, m := range catalog.Movies {
		r.AddMovie(domain.Movie{Id: m.Id, Title: m.Title})
	}

	for _, s := range catalog.Series {
		r.AddSeries(domain.Series{Id: s.Id, Title: s.Title})

		for _, season := range s.Seasons {
			r.AddSeason(domain.Season{
				Id:       season.Id,
				SeriesId: s.Id,
				Number:   season.Number,
				Title:    season.Title,
			})

			for _, e := range season.Episodes {
				r.AddEpisode(domain.Episode{
					Id:       e.Id,
					SeriesId: s.Id,
					SeasonId: season.Id,
					Number:   e.Number,
					Title:    e.Title,
				})
			}
		}
	}
}
