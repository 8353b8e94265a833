package models

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func date(s string) *civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestValidAt(t *testing.T) {
	at := *date("2024-06-01")

	tests := []struct {
		name     string
		from, to *civil.Date
		want     bool
	}{
		{"open both ends", nil, nil, true},
		{"inside", date("2024-01-01"), date("2024-12-31"), true},
		{"starts on the day", date("2024-06-01"), nil, true},
		{"ends on the day", nil, date("2024-06-01"), true},
		{"not yet valid", date("2024-06-02"), nil, false},
		{"expired", nil, date("2024-05-31"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAt(tt.from, tt.to, at))
		})
	}
}

func TestSnapshotSort(t *testing.T) {
	s := Snapshot{
		Elements:      []Element{{ID: "b"}, {ID: "a"}},
		Relationships: []Relationship{{ID: "r2"}, {ID: "r1"}},
	}
	s.Sort()
	assert.Equal(t, "a", s.Elements[0].ID)
	assert.Equal(t, "r1", s.Relationships[0].ID)
}
