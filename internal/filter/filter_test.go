package filter

import (
	"testing"

	"github.com/amishk599/jobscout/internal/model"
)

func listing(title, location string, tags ...string) model.Listing {
	return model.Listing{Title: title, Location: location, Tags: tags}
}

func TestListings_Match(t *testing.T) {
	tests := []struct {
		name      string
		titles    []string
		locations []string
		tags      []string
		listing   model.Listing
		wantMatch bool
	}{
		{
			name:      "matches both title and location",
			titles:    []string{"software engineer", "backend"},
			locations: []string{"United States", "Remote"},
			listing:   listing("Software Engineer", "Remote - US"),
			wantMatch: true,
		},
		{
			name:      "title match but location miss",
			titles:    []string{"software engineer"},
			locations: []string{"Remote"},
			listing:   listing("Software Engineer", "London"),
			wantMatch: false,
		},
		{
			name:      "location match but title miss",
			titles:    []string{"backend"},
			locations: []string{"Remote"},
			listing:   listing("Product Designer", "Remote"),
			wantMatch: false,
		},
		{
			name:      "case insensitive",
			titles:    []string{"BACKEND"},
			listing:   listing("senior backend developer", ""),
			wantMatch: true,
		},
		{
			name:      "empty lists match all",
			listing:   listing("Anything", "Anywhere"),
			wantMatch: true,
		},
		{
			name:      "tag match",
			tags:      []string{"Python"},
			listing:   listing("Data Engineer", "Remote", "sql", "python"),
			wantMatch: true,
		},
		{
			name:      "tag miss",
			tags:      []string{"rust"},
			listing:   listing("Data Engineer", "Remote", "sql", "python"),
			wantMatch: false,
		},
		{
			name:      "blank keywords ignored",
			titles:    []string{"  "},
			listing:   listing("Anything", ""),
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.titles, tt.locations, tt.tags)
			if got := f.Match(tt.listing); got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestListings_Apply(t *testing.T) {
	f := New([]string{"engineer"}, nil, nil)
	got := f.Apply([]model.Listing{
		listing("Engineer A", ""),
		listing("Designer", ""),
		listing("Engineer B", ""),
	})
	if len(got) != 2 || got[0].Title != "Engineer A" || got[1].Title != "Engineer B" {
		t.Errorf("Apply() = %+v", got)
	}
	if !New(nil, []string{""}, nil).Empty() {
		t.Error("filter with only blank keywords should be empty")
	}
}
