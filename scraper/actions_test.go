package scraper

import "testing"

func TestScrollTracker(t *testing.T) {
	tests := []struct {
		name       string
		maxScrolls int
		idleRounds int
		initial    int
		counts     []int // entry count seen after each scroll
		wantRounds int
		wantCount  int
	}{
		{
			name:       "stops at max scrolls while still growing",
			maxScrolls: 3,
			idleRounds: 3,
			initial:    10,
			counts:     []int{20, 30, 40, 50, 60},
			wantRounds: 3,
			wantCount:  40,
		},
		{
			name:       "stops after idle rounds",
			maxScrolls: 20,
			idleRounds: 3,
			initial:    10,
			counts:     []int{20, 20, 20, 20, 30},
			wantRounds: 4,
			wantCount:  20,
		},
		{
			name:       "growth resets the idle counter",
			maxScrolls: 20,
			idleRounds: 2,
			initial:    0,
			counts:     []int{5, 5, 8, 8, 8, 9},
			wantRounds: 5,
			wantCount:  8,
		},
		{
			name:       "shrinking count is idle",
			maxScrolls: 20,
			idleRounds: 1,
			initial:    10,
			counts:     []int{7, 12},
			wantRounds: 1,
			wantCount:  10,
		},
		{
			name:       "idle stop disabled",
			maxScrolls: 4,
			idleRounds: 0,
			initial:    1,
			counts:     []int{1, 1, 1, 1, 1},
			wantRounds: 4,
			wantCount:  1,
		},
		{
			name:       "no scrolls allowed",
			maxScrolls: 0,
			idleRounds: 3,
			initial:    7,
			counts:     []int{9},
			wantRounds: 0,
			wantCount:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newScrollTracker(tt.maxScrolls, tt.idleRounds, tt.initial)
			for _, n := range tt.counts {
				if !tr.more() {
					break
				}
				tr.observe(n)
			}
			if tr.more() && tr.rounds < len(tt.counts) {
				t.Fatalf("tracker still wants to scroll after %d rounds", tr.rounds)
			}
			if tr.rounds != tt.wantRounds {
				t.Errorf("rounds = %d, want %d", tr.rounds, tt.wantRounds)
			}
			if tr.count != tt.wantCount {
				t.Errorf("count = %d, want %d", tr.count, tt.wantCount)
			}
		})
	}
}
