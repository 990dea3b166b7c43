package planner

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/freeeve/hexcommand/pkg/force"
	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// testPlanner builds a 12x7 clear map with two union brigades under one
// army on the west side and a strong confederate brigade at (9,3).
func testPlanner(t *testing.T, params Params) *Planner {
	t.Helper()
	terrain := make([][]hexmap.TerrainCode, 7)
	for i := range terrain {
		terrain[i] = make([]hexmap.TerrainCode, 12)
		for j := range terrain[i] {
			terrain[i][j] = "clear"
		}
	}
	n, err := hexmap.NewNetwork(hexmap.GridSpec{Width: 12, Height: 7, Terrain: terrain})
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	tree, err := force.Build(
		[]force.UnitSpec{
			{ID: "u1a", Group: "u1", Country: "union", X: 2, Y: 2, Strength: 600},
			{ID: "u2a", Group: "u2", Country: "union", X: 2, Y: 4, Strength: 600},
			{ID: "c1", Group: "cb", Country: "confederate", X: 9, Y: 3, Strength: 1000},
		},
		[]force.GroupSpec{
			{ID: "usa", Name: "Army", Country: "union", Size: "A"},
			{ID: "u1", Size: "B", Parent: "usa"},
			{ID: "u2", Size: "B", Parent: "usa"},
			{ID: "cb", Size: "B"},
		},
	)
	if err != nil {
		t.Fatalf("force.Build: %v", err)
	}
	g := hexmap.NewMoveGraph(n, hexmap.DefaultCostTable())
	objectives := []Objective{{X: 5, Y: 3, VP: 10, VPPerTurn1: 1, VPPerTurn2: 1}}
	return New(g, tree, objectives, params)
}

var union = []string{"union"}

func TestFieldAlgebra(t *testing.T) {
	f, e, vp := NewField(2, 3), NewField(2, 3), NewField(2, 3)
	f.Set(0, 1, 4)
	f.Set(1, 2, 2)
	e.Set(0, 1, 3)
	e.Set(1, 0, 5)
	vp.Set(1, 2, 10)

	eng, err := Engagement(f, e)
	if err != nil {
		t.Fatal(err)
	}
	if eng.At(0, 1) != 12 || eng.At(1, 2) != 0 {
		t.Errorf("engagement = %v", eng.Rows())
	}
	ctl, err := Control(f, e)
	if err != nil {
		t.Fatal(err)
	}
	if ctl.At(0, 1) != 1 || ctl.At(1, 0) != -5 {
		t.Errorf("control = %v", ctl.Rows())
	}
	av, err := AssignValue(vp, f, e)
	if err != nil {
		t.Fatal(err)
	}
	if want := 10 - 0.1*2; math.Abs(av.At(1, 2)-want) > 1e-12 {
		t.Errorf("assign value (1,2) = %v, want %v", av.At(1, 2), want)
	}
	if want := 0.2 * 5; math.Abs(av.At(1, 0)-want) > 1e-12 {
		t.Errorf("assign value (1,0) = %v, want %v", av.At(1, 0), want)
	}
	if f.At(0, 1) != 4 {
		t.Errorf("operands were modified: %v", f.Rows())
	}

	if _, err := Control(f, NewField(3, 2)); err == nil {
		t.Error("Control accepted mismatched shapes")
	}
}

func TestFindMaxFirstInRowMajor(t *testing.T) {
	f := NewField(3, 3)
	f.Set(1, 2, 7)
	f.Set(2, 0, 7)
	v, i, j := f.FindMax()
	if v != 7 || i != 1 || j != 2 {
		t.Errorf("FindMax = %v at (%d,%d), want 7 at (1,2)", v, i, j)
	}
}

func TestVPFieldPeaksAtObjective(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	f := p.VPField()
	if got := f.At(3, 5); got != 20 {
		t.Errorf("vp at objective = %v, want 20", got)
	}
	want := 20 * math.Exp(-0.1*3)
	if got := f.At(3, 6); math.Abs(got-want) > 1e-9 {
		t.Errorf("vp one step away = %v, want %v", got, want)
	}
	v, i, j := f.FindMax()
	if v != 20 || i != 3 || j != 5 {
		t.Errorf("max = %v at (%d,%d)", v, i, j)
	}
}

func TestBrigadeFieldsSplitSides(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	fr, en := p.BrigadeFields(union)
	if got := en.At(3, 9); got != 1000 {
		t.Errorf("enemy at its anchor = %v, want 1000", got)
	}
	if got := fr.At(2, 2); got < 600 {
		t.Errorf("friendly at u1 anchor = %v, want at least 600", got)
	}
	// 21 cost away: 1000 * e^-10.5
	if got := en.At(2, 2); got <= 0 || got >= 1 {
		t.Errorf("enemy at (2,2) = %v, want a small positive trace", got)
	}
}

func TestInfluenceMap(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	m, err := p.InfluenceMap(union)
	if err != nil {
		t.Fatal(err)
	}
	if m.MaxEnemy != 1000 || m.MaxEnemyAt != (hexmap.Point{X: 9, Y: 3}) {
		t.Errorf("enemy max = %v at %v", m.MaxEnemy, m.MaxEnemyAt)
	}
	if m.MaxFriendlyAt.X != 2 {
		t.Errorf("friendly max at %v, want column 2", m.MaxFriendlyAt)
	}
	want := m.Friendly.At(3, 9) - m.Enemy.At(3, 9)
	if got := m.Control.At(3, 9); got != want {
		t.Errorf("control = %v, want %v", got, want)
	}
}

func TestBlockedAndAvailable(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	_, en := p.BrigadeFields(union)
	fr := p.BlockedAndAvailable(en, 100)
	if len(fr.BlockedSeq) != 7 {
		t.Fatalf("blocked = %v, want the anchor and its ring", fr.BlockedSeq)
	}
	if len(fr.Available) != 12 {
		t.Fatalf("available = %v, want the second ring", fr.Available)
	}
	if h := fr.Available[0]; h.I != 1 || h.J != 8 {
		t.Errorf("first available = %v, want (1,8)", h)
	}
	for _, h := range fr.Available {
		if fr.Blocked.Has(h) {
			t.Errorf("%v is both blocked and available", h)
		}
	}
}

func TestDesignedWidth(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	for _, tt := range []struct {
		strength float64
		want     int
	}{{0, 1}, {1, 1}, {500, 1}, {501, 2}, {1200, 3}} {
		if got := p.DesignedWidth(tt.strength); got != tt.want {
			t.Errorf("DesignedWidth(%v) = %d, want %d", tt.strength, got, tt.want)
		}
	}
}

func TestContourOrders(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	orders, err := p.Contour(context.Background(), union)
	if err != nil {
		t.Fatal(err)
	}
	want := []Order{
		{UnitID: "u1", X: 7, Y: 3, Type: Attack},
		{UnitID: "u2", X: 7, Y: 4, Type: Attack},
		{UnitID: "cb", X: 9, Y: 3, Type: Defend},
	}
	if len(orders) != len(want) {
		t.Fatalf("orders = %v, want %v", orders, want)
	}
	for i := range want {
		if orders[i] != want[i] {
			t.Errorf("order %d = %v, want %v", i, orders[i], want[i])
		}
	}
}

func TestContourPlanClaimsDisjointSpace(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	_, en := p.BrigadeFields(union)
	plans, err := p.ContourPlan(context.Background(), en, union)
	if err != nil {
		t.Fatal(err)
	}
	taken := make(map[*hexmap.Hex]string)
	for _, plan := range plans {
		if plan.DesignedWidth != 2 || len(plan.AllocatedSpace) != 2 {
			t.Errorf("%s: width %d, space %v", plan.Formation.ID, plan.DesignedWidth, plan.AllocatedSpace)
		}
		if plan.AllocatedSpace[0] != plan.AnchorHex {
			t.Errorf("%s: space does not start at the anchor", plan.Formation.ID)
		}
		for _, h := range plan.AllocatedSpace {
			if other, ok := taken[h]; ok {
				t.Errorf("%v claimed by %s and %s", h, other, plan.Formation.ID)
			}
			taken[h] = plan.Formation.ID
		}
	}
}

func TestHierarchyPlanRecurses(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	_, en := p.BrigadeFields(union)
	plans, err := p.HierarchyPlan(context.Background(), en, union)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 3 {
		t.Fatalf("plans = %d, want army plus two brigades", len(plans))
	}
	army := plans[0]
	if army.Formation.ID != "usa" || army.DesignedWidth != 3 || len(army.AllocatedSpace) != 3 {
		t.Fatalf("army plan = %+v", army)
	}
	inArmy := make(map[*hexmap.Hex]bool)
	for _, h := range army.AllocatedSpace {
		inArmy[h] = true
	}
	for _, sub := range plans[1:] {
		if !inArmy[sub.AnchorHex] {
			t.Errorf("%s anchored outside the army's space at %v", sub.Formation.ID, sub.AnchorHex)
		}
	}
	if plans[1].Formation.ID != "u1" || plans[2].Formation.ID != "u2" {
		t.Errorf("sub plans = %s, %s", plans[1].Formation.ID, plans[2].Formation.ID)
	}
	if len(plans[2].AllocatedSpace) != 1 {
		t.Errorf("u2 space = %v, want the one hex left", plans[2].AllocatedSpace)
	}

	orders, err := p.HierarchyFrontal(context.Background(), union)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 3 || orders[0].UnitID != "usa" || orders[0].Type != Attack {
		t.Errorf("orders = %v", orders)
	}
}

func TestAllocateSpaceReusesFrozenGraph(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	_, en := p.BrigadeFields(union)
	fr := p.BlockedAndAvailable(en, p.Params.Influence.TargetInfluenceThreshold)
	frozen := graph.Freeze(fr.Graph(p.Graph), hexmap.Coord)
	size := frozen.Len()

	ctx := context.Background()
	top, err := p.AllocateSpace(ctx, fr.Available, p.Tree.Root.Subs[:1], frozen)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Formation.ID != "usa" {
		t.Fatalf("top plans = %+v", top)
	}
	army := top[0]
	sub, err := p.AllocateSpace(ctx, army.AllocatedSpace, army.Formation.Subs, frozen)
	if err != nil {
		t.Fatal(err)
	}
	if frozen.Len() != size {
		t.Errorf("frozen graph grew from %d to %d nodes", size, frozen.Len())
	}

	want, err := p.HierarchyPlan(ctx, en, union)
	if err != nil {
		t.Fatal(err)
	}
	got := append(top, sub...)
	if len(got) != len(want) {
		t.Fatalf("plans = %d, hierarchy plan has %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Formation != want[i].Formation || got[i].AnchorHex != want[i].AnchorHex {
			t.Errorf("plan %d = %s at %v, hierarchy plan has %s at %v", i,
				got[i].Formation.ID, got[i].AnchorHex, want[i].Formation.ID, want[i].AnchorHex)
		}
	}
}

func TestHierarchyPlanCap(t *testing.T) {
	params := DefaultParams()
	params.MaxPlans = 1
	p := testPlanner(t, params)
	_, en := p.BrigadeFields(union)
	plans, err := p.HierarchyPlan(context.Background(), en, union)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 {
		t.Errorf("plans = %d, want 1", len(plans))
	}
}

func TestAllocateSpaceHonorsCancel(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	_, en := p.BrigadeFields(union)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ContourPlan(ctx, en, union)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAllHoldAndAttackNearest(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	hold := p.AllHold()
	if len(hold) != 3 {
		t.Fatalf("hold orders = %v", hold)
	}
	for _, o := range hold {
		if o.Type != Defend {
			t.Errorf("%v is not a hold", o)
		}
	}

	orders := p.AttackNearest(union)
	if len(orders) != 3 {
		t.Fatalf("orders = %v", orders)
	}
	if orders[0] != (Order{UnitID: "cb", X: 9, Y: 3, Type: Defend}) {
		t.Errorf("target order = %v, want hold", orders[0])
	}
	for _, o := range orders[1:] {
		if o.Type != Attack || o.X != 9 || o.Y != 3 {
			t.Errorf("attacker order = %v, want attack at (9,3)", o)
		}
	}

	if got := p.AttackNearest([]string{"prussia"}); len(got) != 3 || got[0].Type != Defend {
		t.Errorf("no attackers: %v", got)
	}
}

func TestPointToPoint(t *testing.T) {
	params := DefaultParams()
	params.SegmentRadius = 1
	p := testPlanner(t, params)
	orders, a, err := p.PointToPoint(context.Background(), union)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Converged {
		t.Errorf("allocation did not converge: %+v", a)
	}
	sg, err := p.SegmentGraph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	target, ok := sg.Lookup(p.Network.At(9, 3))
	if !ok {
		t.Fatal("enemy anchor has no segment")
	}
	if len(orders) != 3 {
		t.Fatalf("orders = %v", orders)
	}
	for _, o := range orders[:2] {
		if o.Type != Attack || o.X != target.Center.X() || o.Y != target.Center.Y() {
			t.Errorf("%v, want attack at center %v", o, target.Center)
		}
	}
	if orders[2].UnitID != "cb" || orders[2].Type != Defend {
		t.Errorf("enemy order = %v", orders[2])
	}
}

func TestPointToPointHex(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	orders, _, err := p.PointToPointHex(context.Background(), union)
	if err != nil {
		t.Fatal(err)
	}
	want := []Order{
		{UnitID: "u1a", X: 9, Y: 3, Type: Attack},
		{UnitID: "u2a", X: 9, Y: 3, Type: Attack},
		{UnitID: "c1", X: 9, Y: 3, Type: Defend},
	}
	if len(orders) != len(want) {
		t.Fatalf("orders = %v", orders)
	}
	for i := range want {
		if orders[i] != want[i] {
			t.Errorf("order %d = %v, want %v", i, orders[i], want[i])
		}
	}
}

func TestSegmentStrength(t *testing.T) {
	params := DefaultParams()
	params.SegmentRadius = 1
	p := testPlanner(t, params)
	sg, err := p.SegmentGraph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := SegmentStrength(p.Network, p.Tree, sg, []string{"confederate"})
	s, _ := sg.Lookup(p.Network.At(9, 3))
	if len(m) != 1 || m[s] != 1000 {
		t.Errorf("strength map = %v", m)
	}
}

func TestHexBoardMoveTime(t *testing.T) {
	p := testPlanner(t, DefaultParams())
	b := p.HexBoard(union)
	if len(b.Active) != 2 || len(b.Passive) != 1 {
		t.Fatalf("board = %d active, %d passive", len(b.Active), len(b.Passive))
	}
	src := p.Network.At(2, 2)
	times, err := b.MoveTime(src, []*hexmap.Hex{src, p.Network.At(3, 2)})
	if err != nil {
		t.Fatal(err)
	}
	if times[0] != 0 || times[1] != 0.3 {
		t.Errorf("times = %v, want [0 0.3]", times)
	}
}

func TestStrategyByName(t *testing.T) {
	for _, name := range StrategyNames() {
		s, err := StrategyByName(name)
		if err != nil {
			t.Fatalf("StrategyByName(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Name() = %q, want %q", s.Name(), name)
		}
	}
	if _, err := StrategyByName("bogus"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestStrategiesProduceOrders(t *testing.T) {
	params := DefaultParams()
	params.SegmentRadius = 1
	for _, name := range StrategyNames() {
		t.Run(name, func(t *testing.T) {
			s, _ := StrategyByName(name)
			out, err := s.Plan(context.Background(), testPlanner(t, params), union)
			if err != nil {
				t.Fatal(err)
			}
			if len(out.Orders) == 0 {
				t.Error("no orders")
			}
			if strings.HasPrefix(name, "p2p") != (out.Allocation != nil) {
				t.Errorf("allocation summary = %v", out.Allocation)
			}
		})
	}
}

func TestOrderJSON(t *testing.T) {
	b, err := json.Marshal(Order{UnitID: "u1", X: 3, Y: 4, Type: Attack})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"type":"attack"`) {
		t.Errorf("json = %s", b)
	}
	var o Order
	if err := json.Unmarshal(b, &o); err != nil {
		t.Fatal(err)
	}
	if o.Type != Attack || o.UnitID != "u1" {
		t.Errorf("round trip = %+v", o)
	}
	if err := json.Unmarshal([]byte(`{"type":"flank"}`), &o); err == nil {
		t.Error("unknown order type accepted")
	}
}
