package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

const userJSON = `{
  "id": 1,
  "name": "Leanne Graham",
  "username": "Bret",
  "email": "Sincere@april.biz",
  "address": {
    "street": "Kulas Light",
    "suite": "Apt. 556",
    "city": "Gwenborough",
    "zipcode": "92998-3874",
    "geo": {"lat": "-37.3159", "lng": "81.1496"}
  },
  "phone": "1-770-736-8031 x56442",
  "website": "hildegard.org",
  "company": {
    "name": "Romaguera-Crona",
    "catchPhrase": "Multi-layered client-server neural-net",
    "bs": "harness real-time e-markets"
  }
}`

func TestValidateAcceptsCompleteUser(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Address.Geo.Lat != "-37.3159" || u.Company.CatchPhrase == "" {
		t.Fatalf("nested fields not decoded: %+v", u)
	}
	if err := Validate(&u); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsMissingNestedField(t *testing.T) {
	var users []User
	raw := `[` + userJSON + `, {"id": 2, "name": "Ervin"}]`
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	err := Validate(users)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["[1].username"]; !ok {
		t.Fatalf("expected [1].username to be reported, got %v", verr.Fields)
	}
	for k := range verr.Fields {
		if k[:3] == "[0]" {
			t.Fatalf("complete record reported invalid: %s", k)
		}
	}
}

func TestValidateMovieResponseAllowsZeroScalars(t *testing.T) {
	raw := `{"page": 1, "results": [{"id": 550, "vote_average": 0, "title": "Fight Club", "overview": "", "adult": false, "popularity": 61.4}]}`
	var resp MovieResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := Validate(&resp); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateMovieResponseRequiresResults(t *testing.T) {
	var resp MovieResponse
	if err := json.Unmarshal([]byte(`{"page": 1}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := Validate(&resp); err == nil {
		t.Fatalf("expected missing results to fail validation")
	}
}

func TestValidateRejectsOutOfRangeRating(t *testing.T) {
	resp := MovieResponse{Results: []Movie{{ID: 1, Title: "x", VoteAverage: 11}}}
	err := Validate(resp)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["results[0].vote_average"]; !ok {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}
}

func TestValidateEmptySliceIsValid(t *testing.T) {
	if err := Validate([]Photo{}); err != nil {
		t.Fatalf("empty slice should validate: %v", err)
	}
}
