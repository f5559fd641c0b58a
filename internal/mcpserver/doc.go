// Package mcpserver implements the Model Context Protocol (MCP) server
// for docs-chat.
//
// The server exposes three tools to AI coding assistants:
//   - ask_docs: Answer a documentation question with cited sources
//   - search_docs: Retrieve matching documentation pages without an answer
//   - deployment_status: List recent deployments from the local ledger
//
// MCP is a JSON-RPC 2.0 protocol over stdio. The server listens on
// stdin for protocol messages and writes responses to stdout, which is
// why all logging in this program goes to stderr.
//
// # Basic Usage
//
// The server is started via the serve command:
//
//	docschat serve
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "docschat": {
//	      "command": "/usr/local/bin/docschat",
//	      "args": ["serve"],
//	      "env": {
//	        "INKEEP_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Tool failures are returned as standard JSON-RPC errors:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (API, database)
//   - -32001: Question or query parameter is empty
//   - -32002: No deployment history configured
package mcpserver
