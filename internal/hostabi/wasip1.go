//go:build wasip1

package hostabi

import "unsafe"

// Every parameter the host expects is a raw pointer into this module's
// linear memory plus (where needed) a length, and every string is
// NUL-terminated. The matcher owns the backing storage for the lifetime
// of the invocation — Go's GC keeps a byte slice alive for as long as a
// live reference to it exists on the stack, which covers the synchronous
// duration of each import call; the *Arena below exists to make that
// ownership explicit rather than to work around it.

//go:wasmimport env getCallingAppInfo
func importGetCallingAppInfo(outInfo unsafe.Pointer)

//go:wasmimport env getRequestSize
func importGetRequestSize(out unsafe.Pointer)

//go:wasmimport env getRequestBuffer
func importGetRequestBuffer(out unsafe.Pointer)

//go:wasmimport env getCredentialsSize
func importGetCredentialsSize(out unsafe.Pointer)

//go:wasmimport env readCredentialsBuffer
func importReadCredentialsBuffer(out unsafe.Pointer, offset, length uint32) uint32

//go:wasmimport env getWasmVersion
func importGetWasmVersion(out unsafe.Pointer)

//go:wasmimport env addStringIdEntry
func importAddStringIdEntry(entryID, iconPtr unsafe.Pointer, iconLen uint32, title, subtitle, disclaimer, warning unsafe.Pointer)

//go:wasmimport env addFieldForStringIdEntry
func importAddFieldForStringIdEntry(entryID, fieldDisplayName, fieldDisplayValue unsafe.Pointer)

//go:wasmimport env addEntrySet
func importAddEntrySet(setID unsafe.Pointer, setLength uint32)

//go:wasmimport env addEntryToSet
func importAddEntryToSet(entryID, iconPtr unsafe.Pointer, iconLen uint32, title, subtitle, disclaimer, warning, metadata, setID unsafe.Pointer, setIndex uint32)

//go:wasmimport env addFieldToEntrySet
func importAddFieldToEntrySet(entryID, fieldDisplayName, fieldDisplayValue, setID unsafe.Pointer, setIndex uint32)

// addEntry/addField: deprecated, imported only for ABI stability. Never
// called.

//go:wasmimport env addEntry
func importAddEntry(entryID unsafe.Pointer)

//go:wasmimport env addField
func importAddField(entryID, fieldDisplayName, fieldDisplayValue unsafe.Pointer)

//go:wasmimport env logMessage
func importLogMessage(level uint32, msgPtr unsafe.Pointer, msgLen uint32)

// WasmHost implements Host against the real //go:wasmimport surface above.
// It is only ever constructed by cmd/matcher/main.go.
type WasmHost struct {
	arena *Arena
}

// NewWasmHost creates a Host bound to the real ABI, with its own
// per-invocation arena: memory stays owned by the matcher for the
// lifetime of the invocation.
func NewWasmHost() *WasmHost {
	return &WasmHost{arena: NewArena()}
}

func (h *WasmHost) CallingAppInfo() CallingAppInfo {
	var buf [256 + 512]byte
	importGetCallingAppInfo(unsafe.Pointer(&buf[0]))
	return CallingAppInfo{
		PackageName: cStringFromBytes(buf[:256]),
		Origin:      cStringFromBytes(buf[256:]),
	}
}

func (h *WasmHost) RequestBytes() ([]byte, error) {
	var size uint32
	importGetRequestSize(unsafe.Pointer(&size))
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	importGetRequestBuffer(unsafe.Pointer(&buf[0]))
	return buf, nil
}

func (h *WasmHost) CredentialsBytes() ([]byte, error) {
	var size uint32
	importGetCredentialsSize(unsafe.Pointer(&size))
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	const chunk = 1 << 16
	var offset uint32
	for offset < size {
		n := size - offset
		if n > chunk {
			n = chunk
		}
		read := importReadCredentialsBuffer(unsafe.Pointer(&buf[offset]), offset, n)
		if read == 0 {
			break
		}
		offset += read
	}
	return buf, nil
}

func (h *WasmHost) WasmVersion() uint32 {
	var version uint32
	importGetWasmVersion(unsafe.Pointer(&version))
	return version
}

func (h *WasmHost) LogMessage(level LogLevel, msg string) {
	b := []byte(msg)
	if len(b) == 0 {
		return
	}
	importLogMessage(uint32(level), unsafe.Pointer(&b[0]), uint32(len(b)))
}

func (h *WasmHost) AddStringIdEntry(entryID string, icon []byte, title, subtitle, disclaimer, warning string) {
	iconPtr, iconLen := h.arena.Bytes(icon)
	importAddStringIdEntry(
		h.arena.CString(entryID),
		iconPtr, iconLen,
		h.arena.CString(title),
		h.arena.CString(subtitle),
		h.arena.CString(disclaimer),
		h.arena.CString(warning),
	)
}

func (h *WasmHost) AddFieldForStringIdEntry(entryID, fieldDisplayName, fieldDisplayValue string) {
	importAddFieldForStringIdEntry(
		h.arena.CString(entryID),
		h.arena.CString(fieldDisplayName),
		h.arena.CString(fieldDisplayValue),
	)
}

func (h *WasmHost) AddEntrySet(setID string, setLength uint32) {
	importAddEntrySet(h.arena.CString(setID), setLength)
}

func (h *WasmHost) AddEntryToSet(entryID string, icon []byte, title, subtitle, disclaimer, warning, metadata, setID string, setIndex uint32) {
	iconPtr, iconLen := h.arena.Bytes(icon)
	importAddEntryToSet(
		h.arena.CString(entryID),
		iconPtr, iconLen,
		h.arena.CString(title),
		h.arena.CString(subtitle),
		h.arena.CString(disclaimer),
		h.arena.CString(warning),
		h.arena.CString(metadata),
		h.arena.CString(setID),
		setIndex,
	)
}

func (h *WasmHost) AddFieldToEntrySet(entryID, fieldDisplayName, fieldDisplayValue, setID string, setIndex uint32) {
	importAddFieldToEntrySet(
		h.arena.CString(entryID),
		h.arena.CString(fieldDisplayName),
		h.arena.CString(fieldDisplayValue),
		h.arena.CString(setID),
		setIndex,
	)
}

func cStringFromBytes(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
