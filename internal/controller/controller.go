// Package controller turns user intents into remote calls. Each intent marks
// its item in-flight, applies the change locally, calls the service and then
// either commits the server's answer or rolls the local change back.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/state"
)

// Remote is the service contract the controller relies on.
type Remote interface {
	List(ctx context.Context, ownerID int) ([]model.Item, error)
	Create(ctx context.Context, item model.NewItem) (model.Item, error)
	Update(ctx context.Context, item model.Item) (model.Item, error)
	Delete(ctx context.Context, id int) error
}

// Options configures a Controller.
type Options struct {
	OwnerID int
	// MaxConcurrency bounds how many requests a batch intent has outstanding.
	// Zero means unbounded.
	MaxConcurrency int
	Logger         *log.Logger
}

// Controller is safe for concurrent use; intents on different items proceed
// independently. Intents on the same item are not serialized: the later
// settling call decides the final state.
type Controller struct {
	store   *state.Store
	remote  Remote
	ownerID int
	limit   int
	logger  *log.Logger
}

// New returns a controller for opts.OwnerID. Without an owner nothing can run.
func New(store *state.Store, remote Remote, opts Options) (*Controller, error) {
	if opts.OwnerID <= 0 {
		return nil, config.ErrNoOwner
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		store:   store,
		remote:  remote,
		ownerID: opts.OwnerID,
		limit:   opts.MaxConcurrency,
		logger:  logger.WithPrefix("sync"),
	}, nil
}

// Store returns the state the controller mutates.
func (c *Controller) Store() *state.Store { return c.store }

// OwnerID returns the owner whose items are managed.
func (c *Controller) OwnerID() int { return c.ownerID }

// Load replaces the list with the server's. On failure the list is left as it
// was and the load error is shown. There is no retry.
func (c *Controller) Load(ctx context.Context) error {
	items, err := c.remote.List(ctx, c.ownerID)
	if err != nil {
		c.logger.Warn("load failed", "owner", c.ownerID, "err", err)
		c.store.ShowError(MsgLoad)
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	c.logger.Debug("loaded", "owner", c.ownerID, "count", len(items))
	c.store.SetItems(items)
	return nil
}

// Create adds an item titled title. A placeholder is shown until the server
// answers; it is replaced by the created item or dropped on failure.
func (c *Controller) Create(ctx context.Context, title string) (model.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		c.store.ShowError(MsgEmptyTitle)
		return model.Item{}, ErrEmptyTitle
	}

	tmp, ok := c.store.BeginCreate(title, c.ownerID)
	if !ok {
		return model.Item{}, ErrCreatePending
	}
	c.store.AddInFlight(tmp.ID)
	c.logger.Debug("create", "temp_id", tmp.ID, "title", title)

	created, err := c.remote.Create(ctx, model.NewItem{Title: title, OwnerID: c.ownerID})
	c.store.RemoveInFlight(tmp.ID)
	if err != nil {
		c.store.DiscardPending(tmp.ID)
		c.logger.Warn("create failed", "title", title, "err", err)
		c.store.ShowError(MsgCreate)
		return model.Item{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	c.store.Commit(tmp.ID, created)
	return created, nil
}

// Toggle flips the completed flag of item id.
func (c *Controller) Toggle(ctx context.Context, id int) (model.Item, error) {
	return c.update(ctx, id, func(it model.Item) model.Item {
		it.Completed = !it.Completed
		return it
	})
}

// Rename changes the title of item id. An unchanged title does nothing and an
// empty one deletes the item; in that case the error is Delete's.
func (c *Controller) Rename(ctx context.Context, id int, newTitle string) (model.Item, error) {
	cur, ok := c.store.Item(id)
	if !ok {
		return model.Item{}, ErrNotFound
	}
	title := strings.TrimSpace(newTitle)
	switch title {
	case cur.Title:
		return cur, nil
	case "":
		return model.Item{}, c.Delete(ctx, id)
	}
	return c.update(ctx, id, func(it model.Item) model.Item {
		it.Title = title
		return it
	})
}

func (c *Controller) update(ctx context.Context, id int, mutate func(model.Item) model.Item) (model.Item, error) {
	if _, ok := c.store.Item(id); !ok {
		return model.Item{}, ErrNotFound
	}
	c.store.AddInFlight(id)
	defer c.store.RemoveInFlight(id)

	before, ok := c.store.ApplyOptimistic(id, mutate)
	if !ok {
		return model.Item{}, ErrNotFound
	}
	next := mutate(before)
	c.logger.Debug("update", "id", id, "title", next.Title, "completed", next.Completed)

	saved, err := c.remote.Update(ctx, next)
	if err != nil {
		c.store.Rollback(id, before)
		c.logger.Warn("update failed", "id", id, "err", err)
		c.store.ShowError(MsgUpdate)
		return model.Item{}, fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	c.store.Commit(id, saved)
	return saved, nil
}

// Delete removes item id once the server confirms. On failure the item stays
// as it was.
func (c *Controller) Delete(ctx context.Context, id int) error {
	if _, ok := c.store.Item(id); !ok {
		return ErrNotFound
	}
	c.store.AddInFlight(id)
	c.logger.Debug("delete", "id", id)

	if err := c.remote.Delete(ctx, id); err != nil {
		c.store.RemoveInFlight(id)
		c.logger.Warn("delete failed", "id", id, "err", err)
		c.store.ShowError(MsgDelete)
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	c.store.RemoveInFlight(id)
	c.store.RemoveItem(id)
	return nil
}

// ClearCompleted deletes every item completed at the time of the call. Each
// delete succeeds or fails on its own; the result joins the failures.
func (c *Controller) ClearCompleted(ctx context.Context) error {
	var ids []int
	for _, it := range c.store.Items() {
		if it.Completed {
			ids = append(ids, it.ID)
		}
	}
	return c.each(ctx, ids, c.Delete)
}

// ToggleAll completes every open item, or reopens everything when all items
// are already completed.
func (c *Controller) ToggleAll(ctx context.Context) error {
	items := c.store.Items()
	all := len(items) > 0
	for _, it := range items {
		if !it.Completed {
			all = false
			break
		}
	}
	var ids []int
	for _, it := range items {
		if all || !it.Completed {
			ids = append(ids, it.ID)
		}
	}
	return c.each(ctx, ids, func(ctx context.Context, id int) error {
		_, err := c.Toggle(ctx, id)
		return err
	})
}

// each runs fn for every id concurrently. A failure does not stop the others.
func (c *Controller) each(ctx context.Context, ids []int, fn func(context.Context, int) error) error {
	if len(ids) == 0 {
		return nil
	}
	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	errs := make([]error, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			errs[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
