package app

import (
	"errors"
	"testing"

	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/domain"
)

func boardFixture() []domain.Task {
	return []domain.Task{
		taskWithOrder("p1t1", domain.StatePendiente, 1000),
		taskWithOrder("p1t2", domain.StatePendiente, 2000),
		taskWithOrder("p1t3", domain.StatePendiente, 3000),
		taskWithOrder("pr1", domain.StateEnProgreso, 1000),
		taskWithOrder("pr2", domain.StateEnProgreso, 2000),
	}
}

func TestPlanDropOntoColumnAppends(t *testing.T) {
	plan, moved, err := PlanDrop(boardFixture(), "p1t1", DropOnColumn(domain.StateEnProgreso))
	if err != nil || !moved {
		t.Fatalf("PlanDrop() moved=%v err=%v", moved, err)
	}
	if plan.ToState != domain.StateEnProgreso {
		t.Fatalf("unexpected destination %q", plan.ToState)
	}
	if plan.ToOrder != 3000 {
		t.Fatalf("expected append order 3000, got %v", plan.ToOrder)
	}
}

func TestPlanDropOntoEmptyColumn(t *testing.T) {
	plan, moved, err := PlanDrop(boardFixture(), "p1t1", DropOnColumn(domain.StateCompletada))
	if err != nil || !moved {
		t.Fatalf("PlanDrop() moved=%v err=%v", moved, err)
	}
	if plan.ToOrder != OrderGap {
		t.Fatalf("expected order %v on empty column, got %v", float64(OrderGap), plan.ToOrder)
	}
}

func TestPlanDropOntoSiblingLandsBeforeIt(t *testing.T) {
	// Dropping onto p1t3 anchors between p1t2 and p1t3.
	plan, moved, err := PlanDrop(boardFixture(), "pr1", DropOnTask("p1t3"))
	if err != nil || !moved {
		t.Fatalf("PlanDrop() moved=%v err=%v", moved, err)
	}
	if plan.ToState != domain.StatePendiente {
		t.Fatalf("destination should come from the sibling's state, got %q", plan.ToState)
	}
	if plan.ToOrder != 2500 {
		t.Fatalf("expected bisected order 2500, got %v", plan.ToOrder)
	}
}

func TestPlanDropOntoFirstSibling(t *testing.T) {
	plan, moved, err := PlanDrop(boardFixture(), "pr1", DropOnTask("p1t1"))
	if err != nil || !moved {
		t.Fatalf("PlanDrop() moved=%v err=%v", moved, err)
	}
	if plan.ToOrder != 500 {
		t.Fatalf("expected before-first order 500, got %v", plan.ToOrder)
	}
}

func TestPlanDropWithinColumnExcludesDragged(t *testing.T) {
	// p1t1 dropped onto its own column's p1t3: anchor pair must skip
	// the dragged task itself when collecting siblings.
	plan, moved, err := PlanDrop(boardFixture(), "p1t1", DropOnTask("p1t3"))
	if err != nil || !moved {
		t.Fatalf("PlanDrop() moved=%v err=%v", moved, err)
	}
	if plan.ToOrder != 2500 {
		t.Fatalf("expected order 2500, got %v", plan.ToOrder)
	}
}

func TestPlanDropSameColumnNoSiblingIsNoop(t *testing.T) {
	_, moved, err := PlanDrop(boardFixture(), "p1t2", DropOnColumn(domain.StatePendiente))
	if err != nil {
		t.Fatalf("PlanDrop() error = %v", err)
	}
	if moved {
		t.Fatal("same-column column drop must be a no-op")
	}
}

func TestPlanDropOnSelfIsNoop(t *testing.T) {
	_, moved, err := PlanDrop(boardFixture(), "p1t2", DropOnTask("p1t2"))
	if err != nil {
		t.Fatalf("PlanDrop() error = %v", err)
	}
	if moved {
		t.Fatal("dropping a task onto itself must be a no-op")
	}
}

func TestPlanDropUnknownTargets(t *testing.T) {
	if _, _, err := PlanDrop(boardFixture(), "ghost", DropOnColumn(domain.StatePendiente)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown dragged task, got %v", err)
	}
	if _, _, err := PlanDrop(boardFixture(), "p1t1", DropOnTask("ghost")); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
	if _, _, err := PlanDrop(boardFixture(), "p1t1", DropOnColumn("archivada")); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget for unknown column, got %v", err)
	}
}

func TestPlanDropFlagsGapExhaustion(t *testing.T) {
	tasks := []domain.Task{
		taskWithOrder("a", domain.StatePendiente, 1000),
		taskWithOrder("b", domain.StatePendiente, 1000+1e-10),
		taskWithOrder("mover", domain.StateEnProgreso, 1000),
	}
	plan, moved, err := PlanDrop(tasks, "mover", DropOnTask("b"))
	if err != nil || !moved {
		t.Fatalf("PlanDrop() moved=%v err=%v", moved, err)
	}
	if !plan.NeedsRenumber {
		t.Fatal("expected NeedsRenumber for an exhausted anchor gap")
	}
}
