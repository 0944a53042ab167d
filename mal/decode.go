package mal

import (
	"bytes"
	"encoding/json"
	"strings"
)

type picture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type broadcast struct {
	DayOfTheWeek string `json:"day_of_the_week"`
	StartTime    string `json:"start_time"`
}

// node is the wire shape shared by every catalog entity
type node struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Name        string     `json:"name"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	MainPicture *picture   `json:"main_picture"`
	Mean        *float64   `json:"mean"`
	Rank        *int       `json:"rank"`
	Status      string     `json:"status"`
	NumEpisodes *int       `json:"num_episodes"`
	NumChapters *int       `json:"num_chapters"`
	NumVolumes  *int       `json:"num_volumes"`
	StartDate   string     `json:"start_date"`
	Synopsis    string     `json:"synopsis"`
	MediaType   string     `json:"media_type"`
	Genres      []named    `json:"genres"`
	Studios     []named    `json:"studios"`
	Broadcast   *broadcast `json:"broadcast"`
}

// item is one element of a list response, optionally wrapped in a node envelope
type item struct {
	Node    *node `json:"node"`
	Ranking *struct {
		Rank int `json:"rank"`
	} `json:"ranking"`
}

type listResponse struct {
	Data []json.RawMessage `json:"data"`
}

// decodeList parses a list response. Items may or may not be wrapped in "node",
// and an absent or empty data array is a valid empty result.
func decodeList(kind Kind, endpoint string, body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []Record{}, nil
	}

	var raw []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, decodeError(endpoint, body, err)
		}
	} else {
		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, decodeError(endpoint, body, err)
		}
		raw = resp.Data
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		var it item
		if err := json.Unmarshal(r, &it); err != nil {
			return nil, decodeError(endpoint, r, err)
		}

		n := it.Node
		if n == nil {
			n = &node{}
			if err := json.Unmarshal(r, n); err != nil {
				return nil, decodeError(endpoint, r, err)
			}
		}
		if n.Rank == nil && it.Ranking != nil && it.Ranking.Rank > 0 {
			rank := it.Ranking.Rank
			n.Rank = &rank
		}

		records = append(records, n.toRecord(kind))
	}

	return records, nil
}

// decodeRecord parses a detail response
func decodeRecord(kind Kind, endpoint string, body []byte) (*Record, error) {
	var n node
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, decodeError(endpoint, body, err)
	}
	if n.ID == 0 {
		var it item
		if err := json.Unmarshal(body, &it); err == nil && it.Node != nil {
			n = *it.Node
		}
	}
	if n.ID == 0 && n.Title == "" && n.Name == "" {
		return nil, &APIError{Kind: KindNotFound, Endpoint: endpoint, Detail: "empty record"}
	}
	rec := n.toRecord(kind)
	return &rec, nil
}

func decodeError(endpoint string, body []byte, err error) error {
	return &APIError{
		Kind:     KindUnexpected,
		Endpoint: endpoint,
		Detail:   "invalid JSON: " + excerpt(body),
		Err:      err,
	}
}

func (n *node) toRecord(kind Kind) Record {
	rec := Record{
		Kind:      kind,
		ID:        n.ID,
		Title:     n.displayTitle(),
		Score:     n.Mean,
		Rank:      n.Rank,
		Status:    Status(n.Status),
		StartDate: n.StartDate,
		Synopsis:  strings.TrimSpace(n.Synopsis),
		MediaType: n.MediaType,
	}

	if n.ID > 0 {
		rec.URL = siteURL(kind, n.ID)
	}

	if n.MainPicture != nil {
		rec.ThumbnailURL = n.MainPicture.Medium
		if rec.ThumbnailURL == "" {
			rec.ThumbnailURL = n.MainPicture.Large
		}
	}

	switch kind {
	case KindManga:
		rec.Count = n.NumChapters
		rec.Volumes = n.NumVolumes
	default:
		rec.Count = n.NumEpisodes
	}

	for _, g := range n.Genres {
		rec.Genres = append(rec.Genres, g.Name)
	}
	for _, s := range n.Studios {
		rec.Studios = append(rec.Studios, s.Name)
	}
	if n.Broadcast != nil {
		rec.BroadcastDay = strings.ToLower(n.Broadcast.DayOfTheWeek)
	}

	return rec
}

func (n *node) displayTitle() string {
	switch {
	case n.Title != "":
		return n.Title
	case n.Name != "":
		return n.Name
	default:
		full := strings.TrimSpace(n.FirstName + " " + n.LastName)
		if full == "" {
			return "Unknown"
		}
		return full
	}
}
