package domain

// Records decoded from the JSONPlaceholder and TMDB APIs. Field names mirror
// the upstream JSON schema one-to-one.

// User is a JSONPlaceholder /users entry.
type User struct {
	ID       int     `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Username string  `json:"username" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Address  Address `json:"address" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Website  string  `json:"website" validate:"required"`
	Company  Company `json:"company" validate:"required"`
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	Suite   string `json:"suite" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zipcode string `json:"zipcode" validate:"required"`
	Geo     Geo    `json:"geo" validate:"required"`
}

type Geo struct {
	Lat string `json:"lat" validate:"required"`
	Lng string `json:"lng" validate:"required"`
}

type Company struct {
	Name        string `json:"name" validate:"required"`
	CatchPhrase string `json:"catchPhrase" validate:"required"`
	BS          string `json:"bs" validate:"required"`
}

// Post is a JSONPlaceholder /posts entry.
type Post struct {
	UserID int    `json:"userId" validate:"required"`
	ID     int    `json:"id" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

// Photo is a JSONPlaceholder /photos entry.
type Photo struct {
	AlbumID      int    `json:"albumId" validate:"required"`
	ID           int    `json:"id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"required,url"`
}

// Movie is one TMDB result. Adult and VoteAverage have meaningful zero values.
type Movie struct {
	ID          int     `json:"id" validate:"required"`
	VoteAverage float64 `json:"vote_average" validate:"gte=0,lte=10"`
	Title       string  `json:"title" validate:"required"`
	Overview    string  `json:"overview"`
	Adult       bool    `json:"adult"`
}

// MovieResponse is the TMDB list envelope.
type MovieResponse struct {
	Results []Movie `json:"results" validate:"required,dive"`
}
