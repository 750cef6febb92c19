package combat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"atb_battle/internal/config"
	"atb_battle/internal/qte"
	"atb_battle/internal/util"
)

var ErrClosed = errors.New("battle is shut down")

// Roster builds the actors of a deck. The battle calls it on deck switch.
type Roster interface {
	Lineup(deckID string) (Lineup, error)
}

type Lineup struct {
	Allies  []ActorSpec
	Enemies []ActorSpec
}

// Deps are the collaborators a battle talks to. Zero values get no-op or
// instant defaults.
type Deps struct {
	Logger    *zap.Logger
	Presenter Presenter
	QTE       qte.Bridge
	Clock     Clock
	Roster    Roster
	Rng       *util.Roller
	Tracer    trace.Tracer
}

type skillRequest struct {
	actor *Actor
	skill *Skill
}

// epoch owns the actor loops started since the last cancellation.
type epoch struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Battle is the ATB scheduler. Tick drives it; each actor drains its own
// queue on a goroutine, and a single slot keeps one task running at a time.
// A running task holds mu except while suspended.
type Battle struct {
	cfg    *config.BattleConfig
	log    *zap.Logger
	pres   Presenter
	qte    qte.Bridge
	clock  Clock
	roster Roster
	rng    *util.Roller
	tracer trace.Tracer

	// opMu serialises cancellation, deck switches and shutdown.
	opMu sync.Mutex

	mu            sync.Mutex
	allies        []*Actor
	enemies       []*Actor
	currentTarget *Actor
	requests      []skillRequest
	acting        *Actor
	active        *Sequence
	pending       int
	idle          chan struct{}
	time          float64
	changingDeck  bool
	closed        bool
	deck          string
	epoch         *epoch

	slot *semaphore.Weighted
}

func NewBattle(cfg *config.BattleConfig, deps Deps) *Battle {
	if cfg == nil {
		cfg = config.DefaultBattle()
	}
	b := &Battle{
		cfg:    cfg,
		log:    deps.Logger,
		pres:   deps.Presenter,
		qte:    deps.QTE,
		clock:  deps.Clock,
		roster: deps.Roster,
		rng:    deps.Rng,
		tracer: deps.Tracer,
		slot:   semaphore.NewWeighted(1),
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.pres == nil {
		b.pres = nopPresenter{}
	}
	if b.rng == nil {
		b.rng = util.NewRoller(cfg.Seed)
	}
	if b.qte == nil {
		b.qte = qte.NewAuto(cfg.QTE.SuccessRate, util.NewRoller(cfg.Seed+1))
	}
	if b.clock == nil {
		b.clock = InstantClock{}
	}
	if b.tracer == nil {
		b.tracer = otel.Tracer("atb_battle/combat")
	}
	b.epoch = newEpoch()
	return b
}

func newEpoch() *epoch {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	return &epoch{ctx: gctx, cancel: cancel, group: g}
}

func (b *Battle) Config() *config.BattleConfig { return b.cfg }

// Tick advances the battle by dt seconds. While any task is queued or
// running it does nothing, so gauges freeze during actions.
func (b *Battle) Tick(dt float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.changingDeck || b.pending > 0 || b.acting != nil {
		return
	}
	b.time += dt

	if len(b.requests) > 0 {
		r := b.requests[0]
		b.requests = b.requests[1:]
		b.enqueue(r.actor, b.skillTask(r.actor, r.skill), true)
		return
	}

	var next *Actor
	best := 0.0
	for _, side := range [][]*Actor{b.allies, b.enemies} {
		for _, a := range side {
			if !a.Alive() {
				continue
			}
			a.Gauge += a.Speed * a.SpeedMultiplier * dt
			if a.Gauge >= b.cfg.GaugeThreshold && a.Gauge > best {
				best = a.Gauge
				next = a
			}
		}
	}
	if next == nil {
		return
	}
	next.Gauge = 0

	var target *Actor
	if next.IsEnemy() {
		target = b.randomLiving(b.allies)
	} else {
		target = b.validateTarget()
	}
	if target == nil {
		b.log.Debug("no target, action dropped", zap.String("actor", next.Name))
		return
	}
	b.enqueue(next, b.basicAttackTask(next, target), false)
}

// RequestSkillUse queues an active skill of the ally at actorIndex. Invalid
// requests are ignored; the result reports whether it was accepted.
func (b *Battle) RequestSkillUse(actorIndex, skillIndex int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || actorIndex < 0 || actorIndex >= len(b.allies) {
		b.log.Debug("skill request ignored: bad actor", zap.Int("actor", actorIndex))
		return false
	}
	a := b.allies[actorIndex]
	s := a.SkillAt(skillIndex)
	switch {
	case !a.Alive():
		b.log.Debug("skill request ignored: actor down", zap.String("actor", a.Name))
		return false
	case s == nil:
		b.log.Debug("skill request ignored: bad skill", zap.String("actor", a.Name), zap.Int("skill", skillIndex))
		return false
	case s.Kind != Active:
		b.log.Debug("skill request ignored: passive", zap.String("actor", a.Name), zap.String("skill", s.ID))
		return false
	case !s.CanUse():
		b.log.Debug("skill request ignored: cooldown",
			zap.String("actor", a.Name), zap.String("skill", s.ID), zap.Int("cooldown", s.CurrentCooldown))
		return false
	}
	b.logLine(a.Name, "%s requests %s", a.Name, s.label())
	b.requests = append(b.requests, skillRequest{actor: a, skill: s})
	return true
}

// SetCurrentTarget makes a living enemy the allies' target.
func (b *Battle) SetCurrentTarget(a *Actor) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a == nil || !a.Alive() || !a.IsEnemy() || !contains(b.enemies, a) {
		return false
	}
	b.currentTarget = a
	b.emit(EvTargetChanged, map[string]any{"target": a.Name})
	b.logLine("system", "target set to %s", a.Name)
	return true
}

// SetCurrentTargetIndex selects the enemy at index i.
func (b *Battle) SetCurrentTargetIndex(i int) bool {
	b.mu.Lock()
	if i < 0 || i >= len(b.enemies) {
		b.mu.Unlock()
		return false
	}
	a := b.enemies[i]
	b.mu.Unlock()
	return b.SetCurrentTarget(a)
}

func (b *Battle) CurrentTarget() *Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentTarget
}

func (b *Battle) Allies() []*Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Actor(nil), b.allies...)
}

func (b *Battle) Enemies() []*Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Actor(nil), b.enemies...)
}

// Acting returns the actor whose task is running, if any.
func (b *Battle) Acting() *Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acting
}

// ActiveSequence is the step machine of the running (or last) task.
func (b *Battle) ActiveSequence() *Sequence {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Time is battle time in seconds: ticks plus every pacing wait.
func (b *Battle) Time() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.time
}

func (b *Battle) Deck() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deck
}

// Busy reports whether a task is queued or running.
func (b *Battle) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending > 0 || b.acting != nil
}

// Inspect runs fn with the battle state locked. Actors must not be read
// concurrently with a running task any other way.
func (b *Battle) Inspect(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

// WaitIdle blocks until no task is queued or running.
func (b *Battle) WaitIdle(ctx context.Context) error {
	for {
		b.mu.Lock()
		if b.pending == 0 {
			b.mu.Unlock()
			return nil
		}
		ch := b.idle
		b.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Battle) Outcome() Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome()
}

func (b *Battle) outcome() Outcome {
	if len(b.allies) == 0 || len(b.enemies) == 0 {
		return Ongoing
	}
	if firstLiving(b.allies) == nil {
		return EnemiesWin
	}
	if firstLiving(b.enemies) == nil {
		return AlliesWin
	}
	return Ongoing
}

// enqueue must be called with mu held.
func (b *Battle) enqueue(a *Actor, t Task, front bool) {
	if b.pending == 0 {
		b.idle = make(chan struct{})
	}
	b.pending++
	if front {
		a.queue.PushFront(t)
	} else {
		a.queue.Push(t)
	}
}

func (b *Battle) taskDone() {
	if b.pending == 0 {
		return
	}
	b.pending--
	if b.pending == 0 && b.idle != nil {
		close(b.idle)
		b.idle = nil
	}
}

// actorLoop drains one actor's queue until the epoch is cancelled.
func (b *Battle) actorLoop(ctx context.Context, a *Actor) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.queue.notify:
		}
		for {
			if ctx.Err() != nil {
				return nil
			}
			t, ok := a.queue.Pop()
			if !ok {
				break
			}
			if err := b.slot.Acquire(ctx, 1); err != nil {
				return nil
			}
			if ctx.Err() != nil {
				b.slot.Release(1)
				return nil
			}
			b.runTask(ctx, a, t)
			b.slot.Release(1)
		}
	}
}

func (b *Battle) runTask(ctx context.Context, a *Actor, t Task) {
	ctx, span := b.tracer.Start(ctx, t.Name, trace.WithAttributes(
		attribute.String("actor", a.Name),
		attribute.String("side", a.Side.String()),
	))
	defer span.End()

	b.mu.Lock()
	defer b.mu.Unlock()
	seq := newSequence(t.Name, a.Name)
	b.active = seq
	b.acting = a
	a.acting = true

	err := t.Run(ctx)
	switch {
	case err == nil:
		seq.transition(evFinish, "")
	case errors.Is(err, context.Canceled):
		seq.transition(evAbort, "cancelled")
	default:
		seq.transition(evAbort, err.Error())
		span.RecordError(err)
		b.log.Error("task failed", zap.String("task", t.Name), zap.String("actor", a.Name), zap.Error(err))
	}
	a.acting = false
	if b.acting == a {
		b.acting = nil
	}
	b.taskDone()
}

func (b *Battle) basicAttackTask(a, target *Actor) Task {
	return Task{Name: "basic_attack", Run: func(ctx context.Context) error {
		return b.basicAttack(ctx, a, target)
	}}
}

func (b *Battle) skillTask(a *Actor, s *Skill) Task {
	return Task{Name: "skill", Run: func(ctx context.Context) error {
		return b.executeSkill(ctx, a, s)
	}}
}

// suspend releases the battle for d seconds of pacing. Must hold mu.
func (b *Battle) suspend(ctx context.Context, d float64, label string) error {
	if d <= 0 {
		return ctx.Err()
	}
	seq := b.active
	seq.transition(evPace, label)
	b.mu.Unlock()
	err := b.clock.Sleep(ctx, d)
	b.mu.Lock()
	if err != nil {
		return err
	}
	b.time += d
	seq.transition(evResume, label)
	return nil
}

// requestQTE suspends until the bridge answers. Must hold mu.
func (b *Battle) requestQTE(ctx context.Context, kind qte.Kind, label string) (bool, error) {
	seq := b.active
	b.emit(EvQTERequested, map[string]any{"kind": kind.String(), "label": label})
	seq.transition(evAwaitQTE, label)
	b.mu.Unlock()
	ok := b.qte.Request(ctx, kind)
	b.mu.Lock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	seq.transition(evResolve, label)
	b.emit(EvQTEResolved, map[string]any{"kind": kind.String(), "label": label, "success": ok})
	if ok {
		b.logLine("qte", "QTE %s succeeded", label)
	} else {
		b.logLine("qte", "QTE %s failed", label)
	}
	return ok, nil
}

// waitPresentation holds until floating numbers clear, capped by config.
func (b *Battle) waitPresentation(ctx context.Context) error {
	p := b.cfg.Pacing
	seq := b.active
	waited := 0.0
	for waited < p.PresentationCap && b.pres.DamageTextsActive() {
		seq.transition(evPresent, "presentation")
		b.mu.Unlock()
		err := b.clock.Sleep(ctx, p.PresentationPoll)
		b.mu.Lock()
		if err != nil {
			return err
		}
		b.time += p.PresentationPoll
		waited += p.PresentationPoll
		seq.transition(evResume, "presentation")
	}
	return nil
}

// validateTarget re-points the allies' target at the first living enemy
// when it is missing or dead. Must hold mu.
func (b *Battle) validateTarget() *Actor {
	if b.currentTarget.Alive() && contains(b.enemies, b.currentTarget) {
		return b.currentTarget
	}
	next := firstLiving(b.enemies)
	if next != b.currentTarget {
		b.currentTarget = next
		if next != nil {
			b.emit(EvTargetChanged, map[string]any{"target": next.Name})
			b.logLine("system", "target changed to %s", next.Name)
		}
	}
	return next
}

func (b *Battle) randomLiving(actors []*Actor) *Actor {
	living := livingOf(actors)
	if i := b.rng.Pick(len(living)); i >= 0 {
		return living[i]
	}
	return nil
}

// sideOf returns the actor's own team.
func (b *Battle) sideOf(a *Actor) []*Actor {
	if a.IsEnemy() {
		return b.enemies
	}
	return b.allies
}

// opponentsOf returns the team the actor fights.
func (b *Battle) opponentsOf(a *Actor) []*Actor {
	if a.IsEnemy() {
		return b.allies
	}
	return b.enemies
}

func (b *Battle) randomAllyExcept(a *Actor) *Actor {
	var pool []*Actor
	for _, o := range livingOf(b.sideOf(a)) {
		if o != a {
			pool = append(pool, o)
		}
	}
	if i := b.rng.Pick(len(pool)); i >= 0 {
		return pool[i]
	}
	return nil
}

// advancePoint is where an actor of the given side steps up to strike.
func (b *Battle) advancePoint(s Side) Vec2 {
	if s == Enemy {
		return vec(b.cfg.EnemyAdvance)
	}
	return vec(b.cfg.PlayerAdvance)
}

func (b *Battle) emit(typ string, payload map[string]any) {
	b.pres.Emit(Event{T: b.time, Type: typ, Payload: payload})
}

func (b *Battle) logLine(source, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	b.emit(EvLogLine, map[string]any{"source": source, "text": text})
	b.log.Debug(text, zap.String("source", source), zap.Float64("t", b.time))
}

func (b *Battle) move(a *Actor, to Vec2) {
	from := a.Position
	a.Position = to
	b.emit(EvMove, map[string]any{"id": a.Name, "from": from.xy(), "to": to.xy()})
}

func (b *Battle) restore(a *Actor) {
	if a.Position == a.OriginalPosition {
		return
	}
	a.Restore()
	b.emit(EvRestore, map[string]any{"id": a.Name, "to": a.Position.xy()})
}

func (b *Battle) focus(a, c *Actor) {
	b.emit(EvCameraFocus, map[string]any{"a": a.Name, "b": c.Name, "from": a.Position.xy(), "to": c.Position.xy()})
}

func (b *Battle) emitStatus(typ string, a *Actor, e StatusEffect) {
	b.emit(typ, map[string]any{
		"target": a.Name, "status": e.Type.String(), "power": e.Power, "stack": e.Stack, "buff": e.Buff,
	})
}

func (b *Battle) number(a *Actor, amount int, category string, kind StatusEffectType) {
	b.emit(EvNumber, map[string]any{"target": a.Name, "amount": amount, "category": category, "kind": kind.String()})
}

func contains(actors []*Actor, a *Actor) bool {
	for _, o := range actors {
		if o == a {
			return true
		}
	}
	return false
}
