// Package birdseye lays out the home as a floor plan: rooms and closets
// sized from their measurement attributes, the activity selected in each
// room, and the state of motion sensors and switches. Room activity and
// sensor state follow subscriptions after the initial queries.
package birdseye

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/hometree/pkg/measure"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// Activity values every room can be set to, whatever the store holds.
const (
	ActivityYes     = "yes"
	ActivityUnknown = "unknown"
)

// SensorOffset centers a sensor icon on its position.
const SensorOffset = -15

// Rect is a pixel rectangle relative to the home's top-left corner.
type Rect struct {
	Left, Top, Width, Height float64
}

// Closet is a bordered or borderless area inside a room.
type Closet struct {
	Name     string
	Rect     Rect
	Bordered bool
}

// Sensor is a motion detector or switch overlaid on a room.
type Sensor struct {
	Path      string
	Name      string
	Kind      string
	Left, Top float64
	Active    bool
}

// Room is one room of the plan.
type Room struct {
	Path        string
	Name        string
	Rect        Rect
	Bordered    bool
	Activity    string
	Highlighted bool // The activity is known.
	Closets     []Closet
	Sensors     []*Sensor
}

// Plan is the laid-out home.
type Plan struct {
	mu         sync.Mutex
	Name       string
	Width      float64
	Height     float64
	Activities []string
	Rooms      []*Room

	rooms   map[string]*Room
	sensors map[string]*Sensor
	store   types.Store
	handles []types.Handle
}

// Build queries store and lays out the home.
// Returns ErrNodeNotFound if the store holds no home node.
func Build(ctx context.Context, store types.Store) (*Plan, error) {
	homes, err := store.Query(ctx, "home")
	if err != nil {
		return nil, fmt.Errorf("query home: %w", err)
	}
	if len(homes) == 0 {
		return nil, fmt.Errorf("%w: no home", types.ErrNodeNotFound)
	}
	home := homes[sortedPaths(homes)[0]]

	p := &Plan{
		Name:    home.Attrs["name"],
		Width:   measure.DisplaySize(home.Attrs["w"]),
		Height:  measure.DisplaySize(home.Attrs["l"]),
		rooms:   make(map[string]*Room),
		sensors: make(map[string]*Sensor),
	}

	if p.Activities, err = activities(ctx, store); err != nil {
		return nil, err
	}

	rooms, err := store.Query(ctx, "home > room")
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	for _, path := range sortedPaths(rooms) {
		r, err := buildRoom(ctx, store, path, rooms[path])
		if err != nil {
			return nil, err
		}
		p.Rooms = append(p.Rooms, r)
		p.rooms[path] = r
		for _, s := range r.Sensors {
			p.sensors[s.Path] = s
		}
	}
	return p, nil
}

// activities lists every activity seen in the store, then yes and unknown,
// without duplicates.
func activities(ctx context.Context, store types.Store) ([]string, error) {
	snap, err := store.Query(ctx, "[activity]")
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	var out []string
	seen := make(map[string]bool)
	add := func(a string) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, path := range sortedPaths(snap) {
		add(snap[path].Attrs["activity"])
	}
	add(ActivityYes)
	add(ActivityUnknown)
	return out, nil
}

func buildRoom(ctx context.Context, store types.Store, path string, node types.Node) (*Room, error) {
	name := node.Attrs["name"]
	r := &Room{
		Path: path,
		Name: name,
		Rect: Rect{
			Left:   measure.DisplayOffset(node.Attrs["x"], 0),
			Top:    measure.DisplayOffset(node.Attrs["y"], 0),
			Width:  measure.DisplaySize(node.Attrs["w"]),
			Height: measure.DisplaySize(node.Attrs["l"]),
		},
		Bordered: !hasAttr(node, "noborder"),
	}
	r.setActivity(node)

	sel, err := roomSelector(name)
	if err != nil {
		glog.Infof("[birdseye]room %s: no closets or sensors: %s\n", path, err)
		return r, nil
	}
	closets, err := store.Query(ctx, sel+" > closet")
	if err != nil {
		return nil, fmt.Errorf("query closets of %s: %w", name, err)
	}
	for _, cp := range sortedPaths(closets) {
		r.Closets = append(r.Closets, layoutCloset(r, closets[cp]))
	}

	sensors, err := store.Query(ctx, sel+" motion, "+sel+" switch")
	if err != nil {
		return nil, fmt.Errorf("query sensors of %s: %w", name, err)
	}
	for _, sp := range sortedPaths(sensors) {
		n := sensors[sp]
		r.Sensors = append(r.Sensors, &Sensor{
			Path:   sp,
			Name:   n.Attrs["name"],
			Kind:   strings.ToLower(n.Tag),
			Left:   measure.DisplayOffset(n.Attrs["x"], SensorOffset),
			Top:    measure.DisplayOffset(n.Attrs["y"], SensorOffset),
			Active: sensorActive(n),
		})
	}
	return r, nil
}

// layoutCloset places a closet in room coordinates. Closets against a wall
// move one pixel outward so their border overlaps the room's.
func layoutCloset(r *Room, n types.Node) Closet {
	c := Closet{
		Name: n.Attrs["name"],
		Rect: Rect{
			Left:   measure.DisplayOffset(n.Attrs["x"], 0),
			Top:    measure.DisplayOffset(n.Attrs["y"], 0),
			Width:  measure.DisplaySize(n.Attrs["w"]),
			Height: measure.DisplaySize(n.Attrs["l"]),
		},
		Bordered: !hasAttr(n, "noborder"),
	}
	if c.Rect.Left <= 0 || c.Rect.Left+c.Rect.Width >= r.Rect.Width {
		c.Rect.Left--
	}
	if c.Rect.Top <= 0 || c.Rect.Top+c.Rect.Height >= r.Rect.Height {
		c.Rect.Top--
	}
	return c
}

func (r *Room) setActivity(n types.Node) {
	r.Activity = n.Attrs["activity"]
	if r.Activity == "" {
		r.Activity = ActivityUnknown
	}
	r.Highlighted = r.Activity != ActivityUnknown
}

func sensorActive(n types.Node) bool {
	return n.Attrs["raw-state"] == "true"
}

func hasAttr(n types.Node, key string) bool {
	_, ok := n.Attrs[key]
	return ok
}

// roomSelector matches the room called name. The name is quoted with
// whichever quote it does not contain; a name holding both cannot be
// expressed.
func roomSelector(name string) (string, error) {
	switch {
	case !strings.Contains(name, `"`):
		return `room[name="` + name + `"]`, nil
	case !strings.Contains(name, `'`):
		return `room[name='` + name + `']`, nil
	default:
		return "", fmt.Errorf("%w: room name %q contains both quote characters", types.ErrInvalidSelector, name)
	}
}

func sortedPaths(snap types.Snapshot) []string {
	out := make([]string, 0, len(snap))
	for p := range snap {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Attach subscribes to every room and sensor in the plan.
func (p *Plan) Attach(store types.Store) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store != nil {
		return fmt.Errorf("plan already attached")
	}
	p.store = store
	for _, r := range p.Rooms {
		h, err := store.Subscribe(r.Path, p.roomChanged)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", r.Path, err)
		}
		p.handles = append(p.handles, h)
		for _, s := range r.Sensors {
			h, err := store.Subscribe(s.Path, p.sensorChanged)
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", s.Path, err)
			}
			p.handles = append(p.handles, h)
		}
	}
	return nil
}

func (p *Plan) roomChanged(path string, n types.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.rooms[path]; ok {
		r.setActivity(n)
		glog.V(2).Infof("[birdseye]room %s activity %s\n", r.Name, r.Activity)
	}
}

func (p *Plan) sensorChanged(path string, n types.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sensors[path]; ok {
		s.Active = sensorActive(n)
	}
}

// Room returns a copy of the named room.
func (p *Plan) Room(name string) (Room, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range p.Rooms {
		if r.Name == name {
			out := *r
			out.Sensors = make([]*Sensor, len(r.Sensors))
			for i, s := range r.Sensors {
				sc := *s
				out.Sensors[i] = &sc
			}
			return out, true
		}
	}
	return Room{}, false
}

// SetActivity asks the store to change the activity of the named room.
// The plan itself changes only when the store reports the update.
func SetActivity(ctx context.Context, w types.Writer, room, activity string) error {
	glog.V(2).Infof("[birdseye]changing room %s to activity %s\n", room, activity)
	sel, err := roomSelector(room)
	if err != nil {
		return err
	}
	return w.SetAttr(ctx, sel, "activity", activity)
}

// Render writes a text description of the plan to w.
func (p *Plan) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := &strings.Builder{}
	fmt.Fprintf(b, "home %s %.0fx%.0fpx\n", p.Name, p.Width, p.Height)
	fmt.Fprintf(b, "activities: %s\n", strings.Join(p.Activities, ", "))
	for _, r := range p.Rooms {
		mark := " "
		if r.Highlighted {
			mark = "*"
		}
		fmt.Fprintf(b, "%s room %s [%s] %s%s\n", mark, r.Name, r.Activity, formatRect(r.Rect), border(r.Bordered))
		for _, c := range r.Closets {
			fmt.Fprintf(b, "    closet %s %s%s\n", c.Name, formatRect(c.Rect), border(c.Bordered))
		}
		for _, s := range r.Sensors {
			state := "idle"
			if s.Active {
				state = "active"
			}
			fmt.Fprintf(b, "    %s %s @(%.0f,%.0f) %s\n", s.Kind, s.Name, s.Left, s.Top, state)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatRect(r Rect) string {
	return fmt.Sprintf("@(%.0f,%.0f) %.0fx%.0f", r.Left, r.Top, r.Width, r.Height)
}

func border(bordered bool) string {
	if bordered {
		return " bordered"
	}
	return ""
}

// Close releases every subscription. It is safe to call more than once.
func (p *Plan) Close() error {
	p.mu.Lock()
	handles, store := p.handles, p.store
	p.handles = nil
	p.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := store.Unsubscribe(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
