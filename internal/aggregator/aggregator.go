package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dws-org/dws-frontend/internal/client"
	"github.com/dws-org/dws-frontend/internal/domain"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Common errors
var (
	// ErrNotAuthenticated rejects ticket loading without a session. The
	// caller re-issues the load once the session becomes available; no
	// fixed delays, no polling.
	ErrNotAuthenticated = errors.New("authenticated session required")
	// ErrSuperseded reports that a newer load for the same logical query
	// was issued before this one finished. The result was discarded.
	ErrSuperseded = errors.New("load superseded by a newer request")
)

// Snapshot is the render-ready view of everything the aggregator has
// loaded so far, with per-query status alongside the data.
type Snapshot struct {
	Events       []UiEvent  `json:"events"`
	EventsState  QueryState `json:"eventsState"`
	Tickets      []UiTicket `json:"tickets"`
	TicketsState QueryState `json:"ticketsState"`
	Detail       *UiEvent   `json:"detail,omitempty"`
	DetailState  QueryState `json:"detailState"`
}

// query names the logical queries whose lifecycle the aggregator tracks.
type query int

const (
	queryEvents query = iota
	queryTickets
	queryDetail
	queryCount
)

// Aggregator joins events, sold-ticket counts, and the user's tickets from
// independently-failing backends into one coherent snapshot. State mutates
// only at completion points of loads that are still current; superseded or
// cancelled loads never touch it.
type Aggregator struct {
	eventClient  client.EventClient
	ticketClient client.TicketClient
	log          *logger.Logger
	now          func() time.Time

	mu       sync.Mutex
	snapshot Snapshot
	tickets  []domain.Ticket // raw, for the purchase history derivation

	// eventCache resolves ticket -> event references. Read-and-extend for
	// the life of the aggregator, never invalidated mid-session. Only
	// successful resolutions land here; a failed fetch is retried on the
	// next load.
	eventCache map[string]*domain.Event
	sf         singleflight.Group

	gens    [queryCount]uint64
	cancels [queryCount]context.CancelFunc
}

// New creates an aggregator over the given service clients.
func New(eventClient client.EventClient, ticketClient client.TicketClient, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Get()
	}
	a := &Aggregator{
		eventClient:  eventClient,
		ticketClient: ticketClient,
		log:          log,
		now:          time.Now,
		eventCache:   make(map[string]*domain.Event),
	}
	a.snapshot.EventsState = idleState()
	a.snapshot.TicketsState = idleState()
	a.snapshot.DetailState = idleState()
	return a
}

// Snapshot returns a copy of the current view state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := a.snapshot
	snap.Events = append([]UiEvent(nil), a.snapshot.Events...)
	snap.Tickets = append([]UiTicket(nil), a.snapshot.Tickets...)
	if a.snapshot.Detail != nil {
		detail := *a.snapshot.Detail
		snap.Detail = &detail
	}
	return snap
}

// begin starts a new generation for a logical query: it cancels the
// in-flight load, bumps the generation counter, and flips the query to
// loading. The returned context is cancelled when a newer load supersedes
// this one.
func (a *Aggregator) begin(ctx context.Context, q query) (context.Context, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cancel := a.cancels[q]; cancel != nil {
		cancel()
	}

	a.gens[q]++
	gen := a.gens[q]

	ctx, cancel := context.WithCancel(ctx)
	a.cancels[q] = cancel

	a.setStateLocked(q, loadingState())
	return ctx, gen
}

// commit applies fn under the lock if gen is still the current generation
// for q. Returns false when the load was superseded.
func (a *Aggregator) commit(q query, gen uint64, fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gens[q] != gen {
		return false
	}
	fn()
	return true
}

func (a *Aggregator) setStateLocked(q query, st QueryState) {
	switch q {
	case queryEvents:
		a.snapshot.EventsState = st
	case queryTickets:
		a.snapshot.TicketsState = st
	case queryDetail:
		a.snapshot.DetailState = st
	}
}

// LoadEvents fetches the event collection and the sold-ticket aggregate,
// joining them by event id. The event list is a primary fetch: its failure
// puts the query in an error state with zero events. The stats fetch is an
// enhancement: its failure degrades every event to soldTickets = 0.
func (a *Aggregator) LoadEvents(ctx context.Context) error {
	ctx, gen := a.begin(ctx, queryEvents)

	events, err := a.eventClient.ListEvents(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ErrSuperseded
		}
		a.commit(queryEvents, gen, func() {
			a.snapshot.Events = nil
			a.setStateLocked(queryEvents, errorState("failed to load events"))
		})
		return err
	}

	soldByEvent := map[string]int{}
	stats, statsErr := a.ticketClient.ListEventStats(ctx)
	if statsErr != nil {
		if ctx.Err() != nil {
			return ErrSuperseded
		}
		a.log.Warn("event stats unavailable, assuming zero sold", zap.Error(statsErr))
	} else {
		for _, s := range stats {
			soldByEvent[s.EventID] = s.TicketsSold
		}
	}

	now := a.now()
	uiEvents := make([]UiEvent, 0, len(events))
	for _, e := range events {
		uiEvents = append(uiEvents, mapEventToUi(e, soldByEvent[e.ID], now))
	}

	if !a.commit(queryEvents, gen, func() {
		a.snapshot.Events = uiEvents
		a.setStateLocked(queryEvents, successState())
	}) {
		return ErrSuperseded
	}
	return nil
}

// LoadUserTickets fetches the session user's tickets and resolves the
// referenced events. The ticket list is a primary fetch; resolving any
// single event is secondary, so a ticket whose event cannot be fetched
// still appears with fallback fields.
func (a *Aggregator) LoadUserTickets(ctx context.Context, sess *identity.Session) error {
	if sess == nil || !sess.Authenticated {
		return ErrNotAuthenticated
	}

	ctx, gen := a.begin(ctx, queryTickets)

	tickets, err := a.ticketClient.ListMyTickets(ctx, sess)
	if err != nil {
		if ctx.Err() != nil {
			return ErrSuperseded
		}
		a.commit(queryTickets, gen, func() {
			a.snapshot.Tickets = nil
			a.tickets = nil
			a.setStateLocked(queryTickets, errorState("failed to load tickets"))
		})
		return err
	}

	a.resolveEvents(ctx, distinctEventIDs(tickets))
	if ctx.Err() != nil {
		return ErrSuperseded
	}

	now := a.now()
	uiTickets := make([]UiTicket, 0, len(tickets))

	a.mu.Lock()
	for _, t := range tickets {
		uiTickets = append(uiTickets, mapTicketToUi(t, a.eventCache[t.EventID], now))
	}
	a.mu.Unlock()

	if !a.commit(queryTickets, gen, func() {
		a.snapshot.Tickets = uiTickets
		a.tickets = tickets
		a.setStateLocked(queryTickets, successState())
	}) {
		return ErrSuperseded
	}
	return nil
}

// LoadEventDetail fetches a single event as a primary query. A 404 is a
// user-visible error state, not a fallback.
func (a *Aggregator) LoadEventDetail(ctx context.Context, id string) error {
	ctx, gen := a.begin(ctx, queryDetail)

	event, err := a.eventClient.GetEvent(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return ErrSuperseded
		}
		msg := "failed to load event"
		if client.IsNotFound(err) {
			msg = "event not found"
		}
		a.commit(queryDetail, gen, func() {
			a.snapshot.Detail = nil
			a.setStateLocked(queryDetail, errorState(msg))
		})
		return err
	}

	sold := 0
	if stats, statsErr := a.ticketClient.ListEventStats(ctx); statsErr == nil {
		for _, s := range stats {
			if s.EventID == id {
				sold = s.TicketsSold
				break
			}
		}
	} else if ctx.Err() != nil {
		return ErrSuperseded
	}

	detail := mapEventToUi(*event, sold, a.now())

	if !a.commit(queryDetail, gen, func() {
		a.snapshot.Detail = &detail
		a.setStateLocked(queryDetail, successState())
	}) {
		return ErrSuperseded
	}
	return nil
}

// LoadManagedEvents returns the organiser view: every event with its
// confirmed-ticket sales count. The event list is primary; the ticket list
// is an enhancement that degrades to zero counts.
func (a *Aggregator) LoadManagedEvents(ctx context.Context, sess *identity.Session) ([]ManagedEvent, error) {
	events, err := a.eventClient.ListEvents(ctx, sess)
	if err != nil {
		return nil, err
	}

	soldByEvent := map[string]int{}
	if tickets, ticketsErr := a.ticketClient.ListAllTickets(ctx, sess); ticketsErr == nil {
		for _, t := range tickets {
			if t.Status == domain.TicketStatusConfirmed {
				soldByEvent[t.EventID] += t.Quantity
			}
		}
	} else {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.Warn("ticket list unavailable, sales counts default to zero", zap.Error(ticketsErr))
	}

	managed := make([]ManagedEvent, 0, len(events))
	for _, e := range events {
		date := e.StartDate
		if date == "" {
			date = e.StartTime
		}
		image := e.ImageURL
		if image == "" {
			image = fallbackImage
		}
		managed = append(managed, ManagedEvent{
			ID:           e.ID,
			Title:        e.Name,
			Date:         date,
			Location:     e.Location,
			Image:        image,
			Price:        e.Price.Value,
			TicketsSold:  soldByEvent[e.ID],
			TotalTickets: e.Capacity,
		})
	}
	return managed, nil
}

// Purchases derives the purchase history rows and summary from the most
// recently loaded tickets. Pure; no network effect.
func (a *Aggregator) Purchases() ([]Purchase, PurchaseSummary) {
	a.mu.Lock()
	tickets := append([]domain.Ticket(nil), a.tickets...)
	titles := make(map[string]string, len(tickets))
	for _, t := range tickets {
		if e := a.eventCache[t.EventID]; e != nil && e.Name != "" {
			titles[t.EventID] = e.Name
		}
	}
	a.mu.Unlock()

	purchases := make([]Purchase, 0, len(tickets))
	var total float64
	for _, t := range tickets {
		payment := "pending"
		if t.Status == domain.TicketStatusConfirmed {
			payment = "paid"
		}
		title, ok := titles[t.EventID]
		if !ok {
			title = fallbackTicketTitle(t.EventID)
		}
		purchases = append(purchases, Purchase{
			ID:            t.ID,
			EventTitle:    title,
			Date:          t.CreatedAt.Format("02 Jan 2006"),
			Amount:        t.TotalPrice,
			PaymentMethod: payment,
			Status:        string(t.Status),
		})
		total += t.TotalPrice
	}

	summary := PurchaseSummary{TotalSpent: total, Count: len(purchases)}
	if len(purchases) > 0 {
		summary.AverageSpent = total / float64(len(purchases))
	}
	return purchases, summary
}

// Cancel aborts every in-flight load. Cancelled loads never update state;
// from the caller's perspective cancellation is silent.
func (a *Aggregator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for q := query(0); q < queryCount; q++ {
		if cancel := a.cancels[q]; cancel != nil {
			cancel()
			a.cancels[q] = nil
		}
		a.gens[q]++ // orphan any load that already passed its ctx check
	}
}

// resolveEvents fetches the given event ids into the cache, skipping ids
// already resolved. Fetches run concurrently and concurrent requests for
// the same id coalesce into a single upstream call.
func (a *Aggregator) resolveEvents(ctx context.Context, ids []string) {
	var missing []string
	a.mu.Lock()
	for _, id := range ids {
		if _, done := a.eventCache[id]; !done {
			missing = append(missing, id)
		}
	}
	a.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range missing {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			v, err, _ := a.sf.Do(id, func() (interface{}, error) {
				return a.eventClient.GetEvent(ctx, id)
			})

			if err != nil {
				// Failures are never cached: the derivation falls back
				// for this pass and the next load retries the fetch.
				a.log.Warn("could not resolve event for ticket, using fallback",
					zap.String("event_id", id), zap.Error(err))
				return
			}

			a.mu.Lock()
			a.eventCache[id] = v.(*domain.Event)
			a.mu.Unlock()
		}(id)
	}
	wg.Wait()
}

func distinctEventIDs(tickets []domain.Ticket) []string {
	seen := make(map[string]struct{}, len(tickets))
	var ids []string
	for _, t := range tickets {
		if _, ok := seen[t.EventID]; ok {
			continue
		}
		seen[t.EventID] = struct{}{}
		ids = append(ids, t.EventID)
	}
	return ids
}
