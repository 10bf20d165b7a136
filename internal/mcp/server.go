package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/dirsite/internal/listing"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the directory's listings.
type Server struct {
	store   listing.Store
	siteURL string // base for detail links, may be empty
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server answering from store. siteURL, when
// set, turns detail paths into absolute links.
func NewServer(store listing.Store, siteURL string) *Server {
	s := &Server{
		store:   store,
		siteURL: siteURL,
	}

	s.mcp = server.NewMCPServer(
		"dirsite",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchListingsTool, s.handleSearchListings)
	s.mcp.AddTool(getListingTool, s.handleGetListing)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
