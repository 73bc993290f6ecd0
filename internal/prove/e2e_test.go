package prove

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aig-verify/combeq/internal/aig"
	"github.com/aig-verify/combeq/internal/fraig"
	"github.com/aig-verify/combeq/internal/lit"
	"github.com/aig-verify/combeq/internal/satsolver"
)

var _ = Describe("Prove", func() {
	When("a 3-input AND implemented two ways is miter-checked", func() {
		It("reports equivalent", func() {
			store := aig.NewStore()
			a := store.FreshInput()
			b := store.FreshInput()
			c := store.FreshInput()

			left := store.And(store.And(a, b), c)
			right := store.And(a, store.And(b, c))
			miter := miterXor(store, left, right)
			store.AddOutput(miter)

			res, err := Prove(context.Background(), store, miter, Config{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verdict).To(Equal(Equivalent))
		})
	})

	When("a XOR b is miter-checked against (a OR b) AND NOT(a AND b)", func() {
		It("reports equivalent", func() {
			store := aig.NewStore()
			a := store.FreshInput()
			b := store.FreshInput()

			xor := store.And(store.And(a, b.Not()).Not(), store.And(a.Not(), b).Not()).Not()

			orab := store.And(a.Not(), b.Not()).Not()
			nandab := store.And(a, b).Not()
			other := store.And(orab, nandab)

			miter := miterXor(store, xor, other)
			store.AddOutput(miter)

			res, err := Prove(context.Background(), store, miter, Config{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verdict).To(Equal(Equivalent))
		})
	})

	When("a AND b is miter-checked against a OR b", func() {
		It("reports a distinguishing counterexample", func() {
			store := aig.NewStore()
			a := store.FreshInput()
			b := store.FreshInput()

			and := store.And(a, b)
			or := store.And(a.Not(), b.Not()).Not()
			miter := miterXor(store, and, or)
			store.AddOutput(miter)

			res, err := Prove(context.Background(), store, miter, Config{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verdict).To(Equal(Differs))
			Expect(res.Counterexample).To(HaveLen(2))
			Expect(res.Counterexample[0]).NotTo(Equal(res.Counterexample[1]))
		})
	})
})

var _ = Describe("CDCL solver", func() {
	It("finds {(a∨b),(¬a∨c),(¬b∨c),(¬c)} unsatisfiable", func() {
		s := satsolver.New()
		va := s.NewVariable()
		vb := s.NewVariable()
		vc := s.NewVariable()

		Expect(s.AddClause([]lit.Lit{va.Pos(), vb.Pos()})).To(BeTrue())
		Expect(s.AddClause([]lit.Lit{va.Neg(), vc.Pos()})).To(BeTrue())
		Expect(s.AddClause([]lit.Lit{vb.Neg(), vc.Pos()})).To(BeTrue())
		Expect(s.AddClause([]lit.Lit{vc.Neg()})).To(BeFalse()) // ¬c propagates to a level-0 conflict

		res := s.Solve(context.Background(), satsolver.Budget{})
		Expect(res).To(Equal(satsolver.Unsat))
	})

	It("finds {(a∨b),(¬a∨c)} satisfiable with c implied whenever a holds", func() {
		s := satsolver.New()
		va := s.NewVariable()
		vb := s.NewVariable()
		vc := s.NewVariable()

		Expect(s.AddClause([]lit.Lit{va.Pos(), vb.Pos()})).To(BeTrue())
		Expect(s.AddClause([]lit.Lit{va.Neg(), vc.Pos()})).To(BeTrue())

		res := s.Solve(context.Background(), satsolver.Budget{})
		Expect(res).To(Equal(satsolver.Sat))
		if s.Value(va.Pos()) {
			Expect(s.Value(vc.Pos())).To(BeTrue())
		}
	})
})

var _ = Describe("FRAIG", func() {
	// The store's own hash-consing already unifies a literal reordering of
	// the same two operands (a AND b collapses to the same node as b AND
	// a by construction, per its canonical input ordering), so two nodes
	// built that way are never independently reachable in the first place.
	// To still exercise FRAIG's simulate-then-SAT-confirm merge path, use
	// two non-commutative-looking constructions of the same function that
	// hashing does *not* unify on its own: (a∧b)∧c built directly, and
	// a∧(b∧c) built by associating the other way.
	When("two structurally distinct subgraphs compute the same function", func() {
		It("merges the non-representative node and leaves it unreferenced", func() {
			store := aig.NewStore()
			a := store.FreshInput()
			b := store.FreshInput()
			c := store.FreshInput()

			n1 := store.And(store.And(a, b), c)
			n2 := store.And(a, store.And(b, c))
			Expect(n1).NotTo(Equal(n2))

			store.AddOutput(n1)
			store.AddOutput(n2)

			eng := fraig.NewEngine(store)
			res, err := eng.Run(context.Background(), []lit.Edge{n1, n2}, fraig.Config{NPatsRandom: 16})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Merges).To(BeNumerically(">=", 1))

			Expect(store.Resolve(n1).Node()).To(Equal(store.Resolve(n2).Node()))
		})
	})
})
