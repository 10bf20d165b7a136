package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchListingsTool defines the search_listings MCP tool.
var searchListingsTool = mcp.NewTool("search_listings",
	mcp.WithDescription("Search the directory by listing name. Matches whole words, ignoring case and word endings. An empty query returns every listing."),
	mcp.WithString("query",
		mcp.Description("Words to look for in listing names"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of listings to return (default 20)"),
	),
	mcp.WithBoolean("mappable_only",
		mcp.Description("Only return listings that have map coordinates"),
	),
)

// getListingTool defines the get_listing MCP tool.
var getListingTool = mcp.NewTool("get_listing",
	mcp.WithDescription("Get every field of one directory listing, including its description."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Listing id as shown by search_listings"),
	),
)
