// Package matcher is the entry point orchestrating the host ABI, the
// credential database and request envelope decoders, protocol
// dispatch, DCQL evaluation, and picker emission in that order.
package matcher

import (
	"github.com/dc4eu/credmatcher/internal/credentialdb"
	"github.com/dc4eu/credmatcher/internal/dcql"
	"github.com/dc4eu/credmatcher/internal/hostabi"
	"github.com/dc4eu/credmatcher/internal/logging"
	"github.com/dc4eu/credmatcher/internal/picker"
	"github.com/dc4eu/credmatcher/internal/policy"
	"github.com/dc4eu/credmatcher/internal/protocol"
	"github.com/dc4eu/credmatcher/internal/reqenvelope"
)

// Run executes one matcher invocation against host: read the calling
// app info, decode the credential database, decode the request
// envelope, then evaluate and emit each request in order. It never
// returns an error for a malformed individual request (those are logged
// and dropped); it returns an error only when the credential database
// itself fails to decode, in which case the invocation produces no
// emission.
func Run(host hostabi.Host) error {
	log := logging.New("matcher", host)
	pol, err := policy.New()
	if err != nil {
		return err
	}

	// Step 1: calling-app info is informational only.
	app := host.CallingAppInfo()
	log.Info("invocation started", "packageName", app.PackageName, "origin", app.Origin)

	// Step 2: credential database.
	credBytes, err := host.CredentialsBytes()
	if err != nil {
		log.Info("failed to read credentials buffer", "error", err.Error())
		return err
	}
	db, err := credentialdb.Decode(credBytes)
	if err != nil {
		log.Info("credential database decode failed; no emission", "error", err.Error())
		return err
	}

	// Step 3: request envelope.
	reqBytes, err := host.RequestBytes()
	if err != nil {
		log.Info("failed to read request buffer", "error", err.Error())
		return nil
	}
	env, err := reqenvelope.Decode(reqBytes)
	if err != nil {
		log.Info("request envelope decode failed; nothing to evaluate", "error", err.Error())
		return nil
	}

	// Step 4: per-invocation dedup set.
	seen := picker.NewDedupSet()
	version := host.WasmVersion()

	// Step 5: evaluate each request in order.
	reqLog := log.New("request")
	for i, raw := range env.Requests {
		if !db.HasProtocol(raw.Protocol) {
			reqLog.Info("protocol not in database; skipped", "index", i, "protocol", raw.Protocol)
			continue
		}

		query, err := protocol.Parse(raw.Protocol, raw.Data)
		if err != nil {
			reqLog.Info("request parse failed; dropped", "index", i, "protocol", raw.Protocol, "error", err.Error())
			continue
		}

		resp, ok := evaluate(db, query, pol)
		if !ok {
			reqLog.Info("dcql query unresolved; skipped", "index", i, "protocol", raw.Protocol)
			continue
		}

		picker.Emit(host, resp, version, raw.Protocol, pol, seen, reqLog)
	}

	return nil
}

func evaluate(db *credentialdb.Database, query *dcql.Query, pol *policy.Policy) (*dcql.Response, bool) {
	if query == nil {
		return nil, false
	}
	return dcql.Evaluate(db, query, pol)
}
