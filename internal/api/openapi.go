package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func openAPIHandler(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(openAPIDocument))
}

// openAPIDocument is generated from the route table; regenerate when the
// surface changes.
const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Galynx API",
    "description": "Team messaging backend: REST surface plus a WebSocket realtime endpoint at /ws.",
    "version": "1.0.0"
  },
  "servers": [{"url": "/api/v1"}],
  "components": {
    "securitySchemes": {
      "bearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
    },
    "schemas": {
      "Error": {
        "type": "object",
        "properties": {
          "error": {"type": "string", "enum": ["unauthorized", "forbidden", "bad_request", "too_many_requests", "not_found", "internal_error"]},
          "message": {"type": "string"}
        }
      },
      "TokenPair": {
        "type": "object",
        "properties": {
          "access_token": {"type": "string"},
          "refresh_token": {"type": "string"},
          "access_expires_at": {"type": "integer", "format": "int64"},
          "refresh_expires_at": {"type": "integer", "format": "int64"}
        }
      },
      "Message": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "format": "uuid"},
          "workspace_id": {"type": "string", "format": "uuid"},
          "channel_id": {"type": "string", "format": "uuid"},
          "sender_id": {"type": "string", "format": "uuid"},
          "thread_root_id": {"type": "string", "format": "uuid", "nullable": true},
          "body_md": {"type": "string"},
          "created_at": {"type": "integer", "format": "int64"},
          "edited_at": {"type": "integer", "format": "int64", "nullable": true},
          "deleted": {"type": "boolean"}
        }
      },
      "Channel": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "format": "uuid"},
          "workspace_id": {"type": "string", "format": "uuid"},
          "name": {"type": "string"},
          "is_private": {"type": "boolean"},
          "created_by": {"type": "string", "format": "uuid"},
          "created_at": {"type": "integer", "format": "int64"}
        }
      }
    }
  },
  "security": [{"bearerAuth": []}],
  "paths": {
    "/auth/login": {"post": {"security": [], "summary": "Exchange credentials for a token pair"}},
    "/auth/refresh": {"post": {"security": [], "summary": "Rotate a refresh token"}},
    "/auth/logout": {"post": {"security": [], "summary": "Revoke a refresh token"}},
    "/me": {"get": {"summary": "Current user profile"}},
    "/users": {
      "get": {"summary": "List workspace users (admin)"},
      "post": {"summary": "Provision a user (admin)"}
    },
    "/workspaces": {
      "get": {"summary": "List the caller's workspaces"},
      "post": {"summary": "Create a workspace"}
    },
    "/workspaces/{workspace_id}/members": {
      "get": {"summary": "List workspace members"},
      "post": {"summary": "Onboard a workspace member (admin)"}
    },
    "/channels": {
      "get": {"summary": "List visible channels"},
      "post": {"summary": "Create a channel (admin)"}
    },
    "/channels/{channel_id}": {
      "get": {"summary": "Get a channel"},
      "delete": {"summary": "Delete a channel and its messages"}
    },
    "/channels/{channel_id}/members": {
      "get": {"summary": "List private-channel members (admin)"},
      "post": {"summary": "Add a private-channel member"}
    },
    "/channels/{channel_id}/members/{user_id}": {
      "delete": {"summary": "Remove a private-channel member"}
    },
    "/channels/{channel_id}/messages": {
      "get": {"summary": "Page channel messages, newest first"},
      "post": {"summary": "Post a message"}
    },
    "/messages/{message_id}": {
      "patch": {"summary": "Edit a message (sender only)"},
      "delete": {"summary": "Soft-delete a message"}
    },
    "/messages/{message_id}/reactions": {
      "post": {"summary": "Add a reaction"},
      "delete": {"summary": "Remove a reaction"}
    },
    "/threads/{root_id}": {"get": {"summary": "Thread summary"}},
    "/threads/{root_id}/replies": {
      "get": {"summary": "Page thread replies"},
      "post": {"summary": "Reply in a thread"}
    },
    "/attachments/presign": {"post": {"summary": "Issue a one-time upload ticket"}},
    "/attachments/commit": {"post": {"summary": "Commit an uploaded object"}},
    "/attachments/{attachment_id}": {"get": {"summary": "Attachment metadata plus download URL"}},
    "/audit": {"get": {"summary": "Page the workspace audit trail (admin)"}}
  }
}
`
