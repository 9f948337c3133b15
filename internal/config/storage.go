package config

import "git.home.luguber.info/inful/focusd/internal/foundation/normalization"

// StorageBackend selects where the focus snapshot lives.
type StorageBackend string

const (
	StorageBackendDiskv StorageBackend = "diskv"
	StorageBackendNATS  StorageBackend = "nats"
)

var storageBackendNormalizer = normalization.NewEnumNormalizer("storage backend", map[string]StorageBackend{
	"diskv": StorageBackendDiskv,
	"disk":  StorageBackendDiskv,
	"file":  StorageBackendDiskv,
	"nats":  StorageBackendNATS,
}, StorageBackendDiskv)

// SignalProvider selects the external busy-interval source.
type SignalProvider string

const (
	SignalProviderNone      SignalProvider = "none"
	SignalProviderGoogle    SignalProvider = "google"
	SignalProviderSimulated SignalProvider = "simulated"
)

var signalProviderNormalizer = normalization.NewEnumNormalizer("signal provider", map[string]SignalProvider{
	"none":      SignalProviderNone,
	"":          SignalProviderNone,
	"google":    SignalProviderGoogle,
	"simulated": SignalProviderSimulated,
	"simulation": SignalProviderSimulated,
}, SignalProviderNone)
