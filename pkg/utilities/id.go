package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for opaque
// refresh tokens.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID generates a snowflake ID string using a node ID from the
// SNOWFLAKE_NODE environment variable, defaulting to node 1. Samples created
// without an identifier get one of these so lab sheets always carry a
// printable reference.
func NewSnowflakeID() string {
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = n
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		// node id out of range; KSUID still satisfies uniqueness
		return NewKSUID()
	}
	return node.Generate().String()
}
