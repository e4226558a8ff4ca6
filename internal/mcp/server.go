// Package mcp exposes a read-only MCP tool surface over the complaint
// store, so agent tooling can inspect records. Tool intents stay advisory;
// no mutation is exposed here.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/capalabs/capaflow/internal/domain/complaint"
)

const serverInstructions = `Read-only access to a complaint lifecycle record
store. Use list_complaints for the dashboard view, get_complaint for a full
record including its conversation history, and search_complaints for
full-text search over descriptions and assistant summaries.`

// NewServer creates an MCP server exposing the complaint tools.
func NewServer(complaints *complaint.Service, logger *slog.Logger) *sdkmcp.Server {
	if logger == nil {
		logger = slog.Default()
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "capaflow",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerTools(server, complaints)
	return server
}

type listComplaintsInput struct {
	States []string `json:"states,omitempty" jsonschema:"Filter by lifecycle states (New, Acknowledged, Under_Investigation, RCA_Complete, CAPA_In_Progress, Sustenance, Resolved, Closed, On_Hold)"`
	Limit  int      `json:"limit,omitempty" jsonschema:"Maximum number of rows (default 50)"`
}

type listComplaintsOutput struct {
	Complaints []complaint.Ref `json:"complaints" jsonschema:"Dashboard rows, newest first"`
	Count      int             `json:"count" jsonschema:"Number of rows returned"`
}

type getComplaintInput struct {
	ID string `json:"id" jsonschema:"Complaint record identifier"`
}

// getComplaintOutput carries the record as raw JSON: the history is a
// polymorphic message list, which a generated schema cannot describe.
type getComplaintOutput struct {
	Record json.RawMessage `json:"record" jsonschema:"Full complaint record including history"`
}

type searchComplaintsInput struct {
	Query string `json:"query" jsonschema:"Full-text query over descriptions and assistant summaries"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type searchComplaintsOutput struct {
	Results []complaint.SearchResult `json:"results" jsonschema:"Search hits with rank and snippet"`
	Count   int                      `json:"count" jsonschema:"Number of hits returned"`
}

func registerTools(server *sdkmcp.Server, complaints *complaint.Service) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_complaints",
		Description: "List complaint records as dashboard rows, optionally filtered by lifecycle state.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args listComplaintsInput) (*sdkmcp.CallToolResult, listComplaintsOutput, error) {
		opts := complaint.ListOptions{Limit: args.Limit}
		if opts.Limit <= 0 {
			opts.Limit = 50
		}
		for _, raw := range args.States {
			state, err := complaint.ParseState(raw)
			if err != nil {
				return nil, listComplaintsOutput{}, fmt.Errorf("unknown state %q", raw)
			}
			opts.States = append(opts.States, state)
		}

		refs, err := complaints.List(ctx, opts)
		if err != nil {
			return nil, listComplaintsOutput{}, err
		}
		return nil, listComplaintsOutput{Complaints: refs, Count: len(refs)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_complaint",
		Description: "Get a full complaint record by ID, including its conversation history.",
		// The record is raw JSON whose shape schema inference cannot
		// describe (see getComplaintOutput), so leave it unconstrained.
		OutputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"record": {Description: "Full complaint record including history"},
			},
			Required: []string{"record"},
		},
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args getComplaintInput) (*sdkmcp.CallToolResult, getComplaintOutput, error) {
		if args.ID == "" {
			return nil, getComplaintOutput{}, fmt.Errorf("id is required")
		}
		c, err := complaints.Get(ctx, args.ID)
		if err != nil {
			return nil, getComplaintOutput{}, err
		}
		data, err := json.Marshal(c)
		if err != nil {
			return nil, getComplaintOutput{}, fmt.Errorf("serializing record: %w", err)
		}
		return nil, getComplaintOutput{Record: data}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_complaints",
		Description: "Full-text search over complaint descriptions and assistant summaries.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args searchComplaintsInput) (*sdkmcp.CallToolResult, searchComplaintsOutput, error) {
		results, err := complaints.Search(ctx, args.Query, complaint.SearchOptions{Limit: args.Limit})
		if err != nil {
			return nil, searchComplaintsOutput{}, err
		}
		return nil, searchComplaintsOutput{Results: results, Count: len(results)}, nil
	})
}
