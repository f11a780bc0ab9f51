package runner

import "github.com/cespare/xxhash/v2"

// Unpartitioned is a PartitionKey for effects with no ordering requirement
// beyond their own worker.
const Unpartitioned = "unpartitioned"

// Partitionable effects are routed to a worker by the hash of their key.
// Effects sharing a key are handled in the order they were run.
type Partitionable interface {
	PartitionKey() string
}

func indexOf(key string, numWorkers int) int {
	switch numWorkers {
	case 0:
		panic("number of workers cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(key) % uint64(numWorkers))
	}
}
