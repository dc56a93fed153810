package reviews

import (
	"errors"
	"testing"
	"time"

	"cleanmarket/internal/domain/shared/faults"
)

func TestSubmit(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 13, 12, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	base := SubmitParams{ID: "r1", BookingID: "b1", WorkerID: "w1", ClientID: "c1", Rating: 5, Comment: "  great  ", CreatedAt: at}

	r, err := Submit(base)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Comment != "great" || r.CreatedAt.Location() != time.UTC {
		t.Fatalf("review = %+v", r)
	}
	evs := r.Drain()
	if len(evs) != 1 || evs[0].EventName() != "review.submitted" {
		t.Fatalf("events = %v", evs)
	}

	for _, stars := range []int{0, 6, -1} {
		p := base
		p.Rating = stars
		if _, err := Submit(p); !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("rating %d: expected validation error, got %v", stars, err)
		}
	}
	p := base
	p.WorkerID = ""
	if _, err := Submit(p); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("missing worker: expected validation error, got %v", err)
	}
	if !errors.Is(ErrAlreadyReviewed, faults.ErrPolicy) {
		t.Fatalf("duplicate reviews should be reported as a policy violation")
	}
}

func TestRatings(t *testing.T) {
	t.Parallel()

	got := Ratings([]*Review{{Rating: 4}, nil, {Rating: 2}})
	if len(got) != 2 || got[0] != 4 || got[1] != 2 {
		t.Fatalf("Ratings = %v", got)
	}
}
