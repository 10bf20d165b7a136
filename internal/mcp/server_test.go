package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/dirsite/internal/db/sqlite"
	"github.com/ziadkadry99/dirsite/internal/listing"
)

func newStore(t *testing.T) listing.Store {
	t.Helper()
	store, err := sqlite.OpenMemory("directory_listings")
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	_, err = store.Upsert(t.Context(), []listing.Listing{
		{ID: "7", Name: "Acme Cafe", Latitude: listing.Coord(40), Longitude: listing.Coord(-73.9), WebsiteURL: "http://acme.test"},
		{ID: "8", Name: "Bakery Lane", Description: "Fresh bread every morning."},
		{ID: "9", Name: "Acme Books", Latitude: listing.Coord(40.7), Longitude: listing.Coord(-74)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) List(context.Context) ([]listing.Listing, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Search(context.Context, string) ([]listing.Listing, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Get(context.Context, listing.ID) (*listing.Listing, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Close() error { return nil }

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_listings", searchListingsTool, "search_listings"},
		{"get_listing", getListingTool, "get_listing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}

	if len(getListingTool.InputSchema.Required) != 1 || getListingTool.InputSchema.Required[0] != "id" {
		t.Errorf("get_listing required = %v", getListingTool.InputSchema.Required)
	}
}

func TestNewServer(t *testing.T) {
	store := newStore(t)
	srv := NewServer(store, "https://directory.example/")

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.store != store {
		t.Error("store not set correctly")
	}
}

func TestHandleSearchListings(t *testing.T) {
	srv := NewServer(newStore(t), "https://directory.example/")
	ctx := t.Context()

	t.Run("by name", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "acme"}

		result, err := srv.handleSearchListings(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		for _, want := range []string{
			"Found 2 listing(s):",
			"--- Acme Books (id 9) ---",
			"--- Acme Cafe (id 7) ---",
			"Location: 40, -73.9",
			"Website: http://acme.test",
			"Details: https://directory.example/items/7/",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("result missing %q:\n%s", want, text)
			}
		}
		if strings.Index(text, "Acme Books") > strings.Index(text, "Acme Cafe") {
			t.Error("results should be ordered by name")
		}
	})

	t.Run("empty query lists everything", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, _ := srv.handleSearchListings(ctx, req)
		if text := resultText(t, result); !strings.Contains(text, "Found 3 listing(s):") {
			t.Errorf("unexpected result:\n%s", text)
		}
	})

	t.Run("limit", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"limit": float64(1)}

		result, _ := srv.handleSearchListings(ctx, req)
		text := resultText(t, result)
		if !strings.Contains(text, "Found 3 listing(s), showing 1:") {
			t.Errorf("unexpected result:\n%s", text)
		}
		if strings.Count(text, "--- ") != 1 {
			t.Errorf("want one listing:\n%s", text)
		}
	})

	t.Run("mappable only", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"mappable_only": true}

		result, _ := srv.handleSearchListings(ctx, req)
		if text := resultText(t, result); strings.Contains(text, "Bakery Lane") {
			t.Errorf("unmapped listing returned:\n%s", text)
		}
	})

	t.Run("no match", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "pizza"}

		result, _ := srv.handleSearchListings(ctx, req)
		if result.IsError {
			t.Fatal("no match is not an error")
		}
		if text := resultText(t, result); !strings.Contains(text, `No listings match "pizza".`) {
			t.Errorf("unexpected result: %s", text)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		broken := NewServer(brokenStore{}, "")
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "acme"}

		result, err := broken.handleSearchListings(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error")
		}
	})
}

func TestHandleGetListing(t *testing.T) {
	srv := NewServer(newStore(t), "")
	ctx := t.Context()

	t.Run("found", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"id": "8"}

		result, err := srv.handleGetListing(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Fresh bread every morning.") || !strings.Contains(text, "Details: /items/8/") {
			t.Errorf("unexpected result:\n%s", text)
		}
		if strings.Contains(text, "Location:") {
			t.Error("unmapped listing should have no location line")
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"id": "404"}

		result, _ := srv.handleGetListing(ctx, req)
		if !result.IsError {
			t.Error("expected tool error for unknown id")
		}
	})

	t.Run("missing id", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, _ := srv.handleGetListing(ctx, req)
		if !result.IsError {
			t.Error("expected tool error for missing id")
		}
	})
}
