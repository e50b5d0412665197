package domain

type Movie struct {
	Id    int64  `json:"id"`
	Title string `json:"title"`
}

type Series struct {
	Id    int64  `json:"id"`
	Title string `json:"title"`
}

type Season struct {
	Id       int64  `json:"id"`
	SeriesId int64  `json:"series_id"`
	Number   int    `json:"number"`
	Title    string `json:"title,omitempty"`
}

type Episode struct {
	Id       int64  `json:"id"`
	SeriesId int64  `json:"series_id"`
	SeasonId int64  `json:"season_id"`
	Number   int    `json:"number"`
	Title    string `json:"title,omitempty"`
}
