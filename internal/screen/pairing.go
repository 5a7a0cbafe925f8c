package screen

import (
	"context"
	"errors"
	"sync"

	"hsdesk/internal/api"
	"hsdesk/internal/desk"
)

// PairingSource generates pairing payloads. *api.Client satisfies it.
type PairingSource interface {
	GeneratePairingCode(ctx context.Context) (*api.PairingCode, error)
}

// Verification is the outcome of checking the displayed fingerprint against the payload.
type Verification int

const (
	// NotVerifiable means the payload carries no public key to check against.
	NotVerifiable Verification = iota
	Verified
	Mismatch
)

func (v Verification) String() string {
	switch v {
	case Verified:
		return "verified"
	case Mismatch:
		return "mismatch"
	default:
		return "not verifiable"
	}
}

// PairingView is a snapshot of the pairing screen.
type PairingView struct {
	State        LoadState
	QRContent    string
	Fingerprint  string
	HostName     string
	Verification Verification
	Message      string
}

// Pairing issues one pairing-code request per mount. There is no retry and
// no polling for pairing completion.
type Pairing struct {
	source   PairingSource
	logger   desk.Logger
	lifetime Lifetime

	mu   sync.Mutex
	view PairingView
}

func NewPairing(source PairingSource, logger desk.Logger) *Pairing {
	return &Pairing{source: source, logger: logger}
}

// Mount requests a pairing payload and blocks until the screen reaches Ready or Failed.
func (p *Pairing) Mount(ctx context.Context) {
	p.lifetime.Reset()
	reqCtx, tok := p.lifetime.Begin(ctx)
	defer p.lifetime.Finish(tok)

	p.mu.Lock()
	p.view = PairingView{State: Loading}
	p.mu.Unlock()

	code, err := p.source.GeneratePairingCode(reqCtx)
	next := p.resolve(code, err)

	if !p.lifetime.Current(tok) {
		p.logger.Debug("discarding stale pairing response")
		return
	}
	p.mu.Lock()
	p.view = next
	p.mu.Unlock()
}

func (p *Pairing) resolve(code *api.PairingCode, err error) PairingView {
	if err != nil {
		p.logger.Error("generating pairing code", "error", err)
		return PairingView{State: Failed, Message: MsgPairingFailed}
	}

	qr, err := code.QRContent()
	if err != nil {
		p.logger.Error("pairing payload unusable", "error", err)
		return PairingView{State: Failed, Message: MsgPairingFailed}
	}

	v := PairingView{
		State:       Ready,
		QRContent:   qr,
		Fingerprint: code.Fingerprint,
		HostName:    code.HostName(),
	}
	ok, err := code.Verify()
	switch {
	case errors.Is(err, api.ErrNoPublicKey):
		v.Verification = NotVerifiable
	case err != nil:
		p.logger.Warn("pairing public key unreadable", "error", err)
		v.Verification = Mismatch
	case ok:
		v.Verification = Verified
	default:
		p.logger.Warn("pairing fingerprint does not match public key", "fingerprint", code.Fingerprint)
		v.Verification = Mismatch
	}
	return v
}

// Unmount drops any response still in flight.
func (p *Pairing) Unmount() {
	p.lifetime.End()
}

func (p *Pairing) View() PairingView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}
