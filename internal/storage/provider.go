package storage

import "quotereel/internal/ports"

// Provider is the durable-storage contract consumed by the pipeline's
// persist-mode delivery. Alias to ports.StorageProvider to keep call
// sites short.
type Provider = ports.StorageProvider
