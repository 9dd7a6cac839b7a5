package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

// Goals synchronizes GET/PUT /usergoals/.
type Goals struct {
	*Collection[models.Goal]

	api    API
	log    logging.Logger
	policy InvalidationPolicy
}

func NewGoals(api API, log logging.Logger, policy InvalidationPolicy) *Goals {
	if log == nil {
		log = logging.NewNop()
	}
	return &Goals{
		Collection: NewCollection[models.Goal]("goals", log),
		api:        api,
		log:        log,
		policy:     policy,
	}
}

func (g *Goals) List(ctx context.Context, sess session.Context) ([]models.Goal, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	return g.Load(ctx, func(ctx context.Context) ([]models.Goal, error) {
		return g.api.ListGoals(ctx, sess.AccessToken)
	})
}

// Current returns the first goal of the last list, which the API treats as
// the user's goal.
func (g *Goals) Current() (models.Goal, bool) {
	items := g.Items()
	if len(items) == 0 {
		return models.Goal{}, false
	}
	return items[0], true
}

// Update fully replaces the goal identified by id.
func (g *Goals) Update(ctx context.Context, sess session.Context, id models.ID, draft models.GoalDraft) (models.Goal, error) {
	if err := requireID(id); err != nil {
		return models.Goal{}, err
	}
	if err := requireAuth(sess); err != nil {
		return models.Goal{}, err
	}
	if err := validate("update goal", draft); err != nil {
		return models.Goal{}, err
	}

	goal, err := g.api.UpdateGoal(ctx, sess.AccessToken, id, draft)
	if err != nil {
		return models.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	g.relist(ctx, sess)
	return goal, nil
}

// ApplyDirective lets the server derive goal values from free text.
func (g *Goals) ApplyDirective(ctx context.Context, sess session.Context, id models.ID, d models.GoalsDirective) (models.Goal, error) {
	if err := requireID(id); err != nil {
		return models.Goal{}, err
	}
	if err := requireAuth(sess); err != nil {
		return models.Goal{}, err
	}
	if err := validate("apply goals directive", d); err != nil {
		return models.Goal{}, err
	}

	goal, err := g.api.ApplyGoalsDirective(ctx, sess.AccessToken, id, d)
	if err != nil {
		return models.Goal{}, fmt.Errorf("apply goals directive: %w", err)
	}
	g.relist(ctx, sess)
	return goal, nil
}

func (g *Goals) relist(ctx context.Context, sess session.Context) {
	if g.policy != RelistAfterMutation {
		return
	}
	if _, err := g.List(ctx, sess); err != nil && !errors.Is(err, ErrStale) {
		g.log.Warn(ctx, "goals relist after mutation failed", "error", err)
	}
}
