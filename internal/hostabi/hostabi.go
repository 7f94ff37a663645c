// Package hostabi defines the boundary between the matcher and the
// Android Identity Credential matcher host: the picker ABI the platform
// loads a Wasm matcher module against. The rest of the matcher never
// touches raw pointers or //go:wasmimport declarations directly — it
// programs against the Host interface in this file, which is
// implemented once for real by WasmHost (wasip1 only, see wasip1.go) and
// once in-memory by FakeHost (every GOOS, used by tests and by
// internal/matcher's own test suite).
package hostabi

// LogLevel mirrors the verbosity levels internal/logging maps onto
// logr.Logger.V(n): Info, Debug, Trace.
type LogLevel uint32

const (
	LogInfo LogLevel = iota
	LogDebug
	LogTrace
	LogError
)

// CallingAppInfo is the fixed-size struct the host fills via
// getCallingAppInfo, identifying the app that triggered the credential
// request. It is informational only: nothing in matching or emission
// depends on it.
type CallingAppInfo struct {
	PackageName string
	Origin      string
}

// Picker is the emission half of the ABI: the v1 flat surface and the v2
// set surface, plus the deprecated addEntry/addField pair which the
// matcher imports for ABI stability but never calls.
type Picker interface {
	// AddStringIdEntry and AddFieldForStringIdEntry are the v1 (< 2) flat
	// emission surface. icon may be nil (an empty bitmap passes a null
	// pointer).
	AddStringIdEntry(entryID string, icon []byte, title, subtitle, disclaimer, warning string)
	AddFieldForStringIdEntry(entryID, fieldDisplayName, fieldDisplayValue string)

	// AddEntrySet, AddEntryToSet and AddFieldToEntrySet are the v2 (>= 2)
	// set-and-field emission surface.
	AddEntrySet(setID string, setLength uint32)
	AddEntryToSet(entryID string, icon []byte, title, subtitle, disclaimer, warning, metadata, setID string, setIndex uint32)
	AddFieldToEntrySet(entryID, fieldDisplayName, fieldDisplayValue, setID string, setIndex uint32)
}

// Host is the full imported surface the matcher orchestrates against.
type Host interface {
	Picker

	// CallingAppInfo reads the host's package-name/origin struct.
	CallingAppInfo() CallingAppInfo

	// RequestBytes returns the full request envelope JSON.
	RequestBytes() ([]byte, error)

	// CredentialsBytes returns the full credential-database CBOR bytes.
	CredentialsBytes() ([]byte, error)

	// WasmVersion returns the host's capability version: callers use it
	// to decide between the v1 flat and v2 set emission surfaces.
	WasmVersion() uint32

	// LogMessage forwards a diagnostic to the host log sink. It returns
	// nothing and never fails the invocation — no error from inside the
	// sandbox is ever surfaced to the calling app. On wasip1 logMessage is
	// declared as a host import like every other call here, so the host
	// must provide it for the module to load.
	LogMessage(level LogLevel, msg string)
}
