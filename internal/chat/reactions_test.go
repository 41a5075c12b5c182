package chat

import (
	"testing"

	"github.com/adamavenir/parley/internal/types"
)

func TestPlanReactionToggle(t *testing.T) {
	reactions := []types.Reaction{
		{ID: "r1", UserID: "viewer", Emoji: "👍", CreatedAt: 1000},
		{ID: "r2", UserID: "other", Emoji: "❤️", CreatedAt: 2000},
	}

	t.Run("same emoji removes", func(t *testing.T) {
		next, shouldInsert := planReactionToggle(reactions, "viewer", "👍", 3000)
		if shouldInsert {
			t.Fatal("toggling off should not insert")
		}
		if len(next) != 1 || next[0].ID != "r2" {
			t.Fatalf("next = %v, want only r2", next)
		}
	})

	t.Run("different emoji replaces", func(t *testing.T) {
		next, shouldInsert := planReactionToggle(reactions, "viewer", "🔥", 3000)
		if !shouldInsert {
			t.Fatal("replacing should insert")
		}
		if len(next) != 2 {
			t.Fatalf("len(next) = %d, want 2", len(next))
		}
		var mine *types.Reaction
		for i := range next {
			if next[i].UserID == "viewer" {
				if mine != nil {
					t.Fatal("viewer has more than one reaction")
				}
				mine = &next[i]
			}
		}
		if mine == nil || mine.Emoji != "🔥" {
			t.Fatalf("viewer reaction = %v, want 🔥", mine)
		}
	})

	t.Run("no existing reaction inserts", func(t *testing.T) {
		next, shouldInsert := planReactionToggle(nil, "viewer", "👍", 3000)
		if !shouldInsert {
			t.Fatal("first reaction should insert")
		}
		if len(next) != 1 || next[0].Emoji != "👍" || next[0].CreatedAt != 3000 {
			t.Fatalf("next = %v", next)
		}
	})

	t.Run("other users untouched", func(t *testing.T) {
		next, _ := planReactionToggle(reactions, "viewer", "👍", 3000)
		for _, r := range next {
			if r.UserID == "other" && r.ID != "r2" {
				t.Fatalf("other user's reaction changed: %v", r)
			}
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		planReactionToggle(reactions, "viewer", "🔥", 3000)
		if reactions[0].Emoji != "👍" || reactions[1].Emoji != "❤️" {
			t.Fatalf("input slice mutated: %v", reactions)
		}
	})
}
