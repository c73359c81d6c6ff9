package devtools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients during the initialize handshake.
const Version = "0.1.0"

type pathArgs struct {
	Path string `json:"path" jsonschema:"required,description=Path relative to the workspace root"`
}

type writeArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Path relative to the workspace root"`
	Content string `json:"content" jsonschema:"required,description=File content"`
}

type moveArgs struct {
	Source      string `json:"source" jsonschema:"required,description=Path to move from"`
	Destination string `json:"destination" jsonschema:"required,description=Path to move to"`
}

type deleteDirArgs struct {
	Path      string `json:"path" jsonschema:"required,description=Path relative to the workspace root"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"description=Delete the directory contents as well"`
}

type commandArgs struct {
	Command string `json:"command" jsonschema:"required,description=Shell command to run in the workspace"`
}

type searchArgs struct {
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search under (default workspace root)"`
	Pattern string `json:"pattern" jsonschema:"required,description=Filename glob such as *.go"`
}

type diffArgs struct {
	Path string `json:"path,omitempty" jsonschema:"description=Limit the diff to one path"`
}

type emptyArgs struct{}

// NewServer builds the MCP server exposing the workspace tools over stdio.
func NewServer(ws *Workspace) *server.MCPServer {
	s := server.NewMCPServer(
		"stride-devtools",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(fmt.Sprintf(
			"Development tools rooted at %s. All paths are resolved inside this workspace.", ws.Root())),
	)

	s.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a file and return its contents."),
		mcp.WithInputSchema[pathArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args pathArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content, err := ws.ReadFile(args.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(content), nil
	})

	s.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Write content to a file, creating it and any parent directories."),
		mcp.WithInputSchema[writeArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args writeArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.WriteFile(args.Path, args.Content); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("wrote " + args.Path), nil
	})

	s.AddTool(mcp.NewTool("append_file",
		mcp.WithDescription("Append content to a file, creating it if missing."),
		mcp.WithInputSchema[writeArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args writeArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.AppendFile(args.Path, args.Content); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("appended to " + args.Path), nil
	})

	s.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Delete a single file."),
		mcp.WithInputSchema[pathArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args pathArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.DeleteFile(args.Path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("deleted " + args.Path), nil
	})

	s.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List directory entries; directories carry a trailing slash."),
		mcp.WithInputSchema[pathArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args pathArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries, err := ws.ListDirectory(args.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(entries) == 0 {
			return mcp.NewToolResultText("(empty)"), nil
		}
		return mcp.NewToolResultText(JoinLines(entries)), nil
	})

	s.AddTool(mcp.NewTool("create_directory",
		mcp.WithDescription("Create a directory, including parents."),
		mcp.WithInputSchema[pathArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args pathArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.CreateDirectory(args.Path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("created " + args.Path), nil
	})

	s.AddTool(mcp.NewTool("delete_directory",
		mcp.WithDescription("Delete a directory; pass recursive to remove its contents too."),
		mcp.WithInputSchema[deleteDirArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args deleteDirArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.DeleteDirectory(args.Path, args.Recursive); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("deleted " + args.Path), nil
	})

	s.AddTool(mcp.NewTool("move_file",
		mcp.WithDescription("Move or rename a file or directory inside the workspace."),
		mcp.WithInputSchema[moveArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args moveArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.MoveFile(args.Source, args.Destination); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("moved %s to %s", args.Source, args.Destination)), nil
	})

	s.AddTool(mcp.NewTool("copy_file",
		mcp.WithDescription("Copy a file or directory inside the workspace."),
		mcp.WithInputSchema[moveArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args moveArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ws.CopyFile(args.Source, args.Destination); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("copied %s to %s", args.Source, args.Destination)), nil
	})

	s.AddTool(mcp.NewTool("get_file_info",
		mcp.WithDescription("Report size, mode, modification time and line count for a path."),
		mcp.WithInputSchema[pathArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args pathArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		info, err := ws.FileInfo(args.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatInfo(info)), nil
	})

	s.AddTool(mcp.NewTool("execute_command",
		mcp.WithDescription("Run a shell command in the workspace (30s timeout)."),
		mcp.WithInputSchema[commandArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args commandArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := ws.ExecuteCommand(ctx, args.Command)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	})

	s.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Recursively find files whose name matches a glob pattern."),
		mcp.WithInputSchema[searchArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args searchArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		matches, err := ws.SearchFiles(args.Path, args.Pattern)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(matches) == 0 {
			return mcp.NewToolResultText("no matches"), nil
		}
		return mcp.NewToolResultText(JoinLines(matches)), nil
	})

	s.AddTool(mcp.NewTool("git_status",
		mcp.WithDescription("Show git status for the workspace."),
		mcp.WithInputSchema[emptyArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := ws.GitStatus(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	})

	s.AddTool(mcp.NewTool("git_diff",
		mcp.WithDescription("Show the unstaged git diff, optionally limited to one path."),
		mcp.WithInputSchema[diffArgs](),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args diffArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := ws.GitDiff(ctx, args.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	})

	return s
}

func formatInfo(info Info) string {
	kind := "file"
	if info.Dir {
		kind = "directory"
	}
	lines := []string{
		"path: " + info.Path,
		"type: " + kind,
		fmt.Sprintf("size: %d", info.Size),
		"mode: " + info.Mode.String(),
		"modified: " + info.ModTime.Format(time.RFC3339),
	}
	if info.Lines >= 0 {
		lines = append(lines, fmt.Sprintf("lines: %d", info.Lines))
	}
	return JoinLines(lines)
}
