package blocktree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRemoteFetch = errors.New("remote fetch failed")
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrNodeGone matches delete failures for blocks that no longer exist.
	ErrNodeGone = errors.New("node does not exist")
)

// Op names a remote call.
type Op string

const (
	OpFetchChildren  Op = "fetch_children"
	OpCreateChildren Op = "create_children"
	OpDeleteNode     Op = "delete_node"
	OpQueryDatabase  Op = "query_database"
	OpCreatePage     Op = "create_page"
)

// RemoteError reports a failed call to the block store. It satisfies
// errors.Is(err, ErrRemoteFetch) for reads and queries, and
// errors.Is(err, ErrRemoteWrite) for creates and deletes.
type RemoteError struct {
	Op         Op
	NodeID     string
	StatusCode int    // 0 when the request never got a response
	Code       string // store error code, e.g. "rate_limited"
	Message    string
	Gone       bool
	Err        error
}

func (e *RemoteError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Op))
	if e.NodeID != "" {
		sb.WriteString(" " + e.NodeID)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status %d", e.StatusCode)
	}
	if e.Code != "" {
		sb.WriteString(" " + e.Code)
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteFetch:
		return e.Op == OpFetchChildren || e.Op == OpQueryDatabase
	case ErrRemoteWrite:
		return e.Op == OpCreateChildren || e.Op == OpDeleteNode || e.Op == OpCreatePage
	case ErrNodeGone:
		return e.Gone
	}
	return false
}
