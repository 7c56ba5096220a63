package internal

import (
	"time"

	"github.com/xKoRx/openapi-proxy/internal/correlation"
	"github.com/xKoRx/openapi-proxy/internal/journal"
	"github.com/xKoRx/openapi-proxy/sdk/domain"
	"github.com/xKoRx/openapi-proxy/sdk/openapi"
	"github.com/xKoRx/openapi-proxy/sdk/telemetry/semconv"
	"go.opentelemetry.io/otel/attribute"
)

// maxJournalReply tamaño máximo de la respuesta guardada en el journal.
const maxJournalReply = 4096

// journalOp escritura pendiente del journal. begin != nil inserta; si no,
// completa requestID.
type journalOp struct {
	begin *journal.Record

	requestID string
	status    string
	errorKind string
	errMsg    string
	reply     string
	at        time.Time
}

// journalBegin encola el registro de una petición recién enviada. Nunca
// bloquea el bucle de eventos: con la cola llena la operación se descarta.
func (p *Proxy) journalBegin(pending *correlation.Pending, msg *openapi.Message) {
	if p.journal == nil {
		return
	}
	p.enqueueJournal(journalOp{begin: &journal.Record{
		RequestID:   pending.RequestID,
		Command:     pending.Command,
		AccountID:   pending.AccountID,
		PayloadType: msg.PayloadType.String(),
		Status:      journal.StatusPending,
		CreatedAt:   pending.CreatedAt.UnixMilli(),
	}})
}

// journalFinish encola el resultado de una petición.
func (p *Proxy) journalFinish(pending *correlation.Pending, reply *openapi.Message, err error) {
	if p.journal == nil {
		return
	}
	op := journalOp{requestID: pending.RequestID, status: journal.StatusOK, at: p.now()}
	if err != nil {
		op.status = journal.StatusFailed
		op.errorKind = string(domain.KindOf(err))
		op.errMsg = err.Error()
	}
	if reply != nil && reply.Payload != nil {
		if data, mErr := reply.MarshalPayloadJSON(); mErr == nil {
			if len(data) > maxJournalReply {
				data = data[:maxJournalReply]
			}
			op.reply = string(data)
		}
	}
	p.enqueueJournal(op)
}

func (p *Proxy) enqueueJournal(op journalOp) {
	select {
	case p.journalCh <- op:
	default:
		p.telemetry.Warn(p.ctx, "Journal queue full, entry dropped",
			semconv.Proxy.RequestID.String(op.id()),
		)
	}
}

func (op journalOp) id() string {
	if op.begin != nil {
		return op.begin.RequestID
	}
	return op.requestID
}

// journalLoop aplica las escrituras en orden.
func (p *Proxy) journalLoop() {
	defer p.wg.Done()
	for {
		select {
		case op := <-p.journalCh:
			p.applyJournal(op)
		case <-p.ctx.Done():
			return
		}
	}
}

// drainJournal aplica lo que quedó en cola al apagar.
func (p *Proxy) drainJournal() {
	for {
		select {
		case op := <-p.journalCh:
			p.applyJournal(op)
		default:
			return
		}
	}
}

func (p *Proxy) applyJournal(op journalOp) {
	var err error
	if op.begin != nil {
		err = p.journal.Put(op.begin)
	} else {
		err = p.journal.Complete(op.requestID, op.status, op.errorKind, op.errMsg, op.reply, op.at)
	}
	if err != nil {
		p.telemetry.Error(p.ctx, "Journal write failed", err, semconv.Proxy.RequestID.String(op.id()))
	}
}

// journalCleanupLoop elimina periódicamente los registros fuera de retención.
func (p *Proxy) journalCleanupLoop() {
	defer p.wg.Done()

	retention := p.config.JournalRetention
	interval := retention / 24
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.cleanupJournal(retention)
	for {
		select {
		case <-ticker.C:
			p.cleanupJournal(retention)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Proxy) cleanupJournal(retention time.Duration) {
	removed, err := p.journal.Cleanup(p.now().Add(-retention))
	if err != nil {
		p.telemetry.Error(p.ctx, "Journal cleanup failed", err)
		return
	}
	if removed > 0 {
		p.telemetry.Info(p.ctx, "Journal cleanup",
			attribute.Int("removed", removed),
			attribute.String("retention", retention.String()),
		)
	}
}
