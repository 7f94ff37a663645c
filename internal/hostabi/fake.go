package hostabi

// FakeHost is an in-memory Host used by test suites across the module
// (and by anything building for a non-wasip1 GOOS, where WasmHost isn't
// even compiled). It records every Picker call verbatim so tests can
// assert on emission order and content without a real Wasm runtime.
type FakeHost struct {
	App         CallingAppInfo
	Request     []byte
	Credentials []byte
	Version     uint32

	Logs        []FakeLogLine
	StringIDs   []FakeStringIDEntry
	StringField []FakeStringIDField
	EntrySets   []FakeEntrySet
	SetEntries  []FakeSetEntry
	SetFields   []FakeSetField
}

type FakeLogLine struct {
	Level LogLevel
	Msg   string
}

type FakeStringIDEntry struct {
	EntryID                                     string
	Icon                                        []byte
	Title, Subtitle, Disclaimer, Warning         string
}

type FakeStringIDField struct {
	EntryID, FieldDisplayName, FieldDisplayValue string
}

type FakeEntrySet struct {
	SetID     string
	SetLength uint32
}

type FakeSetEntry struct {
	EntryID                              string
	Icon                                  []byte
	Title, Subtitle, Disclaimer, Warning   string
	Metadata, SetID                        string
	SetIndex                               uint32
}

type FakeSetField struct {
	EntryID, FieldDisplayName, FieldDisplayValue string
	SetID                                         string
	SetIndex                                       uint32
}

func NewFakeHost() *FakeHost {
	return &FakeHost{}
}

func (h *FakeHost) CallingAppInfo() CallingAppInfo { return h.App }

func (h *FakeHost) RequestBytes() ([]byte, error) { return h.Request, nil }

func (h *FakeHost) CredentialsBytes() ([]byte, error) { return h.Credentials, nil }

func (h *FakeHost) WasmVersion() uint32 { return h.Version }

func (h *FakeHost) LogMessage(level LogLevel, msg string) {
	h.Logs = append(h.Logs, FakeLogLine{Level: level, Msg: msg})
}

func (h *FakeHost) AddStringIdEntry(entryID string, icon []byte, title, subtitle, disclaimer, warning string) {
	h.StringIDs = append(h.StringIDs, FakeStringIDEntry{entryID, icon, title, subtitle, disclaimer, warning})
}

func (h *FakeHost) AddFieldForStringIdEntry(entryID, fieldDisplayName, fieldDisplayValue string) {
	h.StringField = append(h.StringField, FakeStringIDField{entryID, fieldDisplayName, fieldDisplayValue})
}

func (h *FakeHost) AddEntrySet(setID string, setLength uint32) {
	h.EntrySets = append(h.EntrySets, FakeEntrySet{setID, setLength})
}

func (h *FakeHost) AddEntryToSet(entryID string, icon []byte, title, subtitle, disclaimer, warning, metadata, setID string, setIndex uint32) {
	h.SetEntries = append(h.SetEntries, FakeSetEntry{entryID, icon, title, subtitle, disclaimer, warning, metadata, setID, setIndex})
}

func (h *FakeHost) AddFieldToEntrySet(entryID, fieldDisplayName, fieldDisplayValue, setID string, setIndex uint32) {
	h.SetFields = append(h.SetFields, FakeSetField{entryID, fieldDisplayName, fieldDisplayValue, setID, setIndex})
}
