package id

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var ErrInvalid = errors.New("invalid id")

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node. The server and the worker use different node ids.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered int64 id. Init must have been called.
func New() int64 {
	return node.Generate().Int64()
}

// Parse converts the decimal form used in URLs and JSON back into an id.
// Zero and negative values are rejected since no generated id takes them.
func Parse(s string) (int64, error) {
	parsed, err := snowflake.ParseString(s)
	if err != nil || parsed.Int64() <= 0 {
		return 0, ErrInvalid
	}
	return parsed.Int64(), nil
}
