package controller

import (
	"context"
	"fmt"

	"github.com/zach-source/bwrofi/internal/keybind"
	"github.com/zach-source/bwrofi/internal/menu"
	"github.com/zach-source/bwrofi/internal/vault"
)

// step is the result of one window: either a terminal action on an item
// or the next window to show.
type step struct {
	terminal bool
	action   keybind.ItemAction
	item     vault.Item

	mode  keybind.WindowMode
	group []vault.Item
}

func (c *Controller) actionStep(target keybind.Target, it vault.Item) step {
	switch t := target.(type) {
	case keybind.WindowMode:
		return step{mode: t}
	case keybind.ItemAction:
		return step{terminal: true, action: t, item: it}
	default:
		return step{terminal: true, action: c.opts.DefaultAction, item: it}
	}
}

// navigate shows windows until an item action is chosen.
func (c *Controller) navigate(ctx context.Context) (keybind.ItemAction, vault.Item, error) {
	cur := step{mode: c.opts.InitialMode}
	for {
		if err := ctx.Err(); err != nil {
			return 0, vault.Item{}, err
		}
		if cur.mode == keybind.ModeGroup && len(cur.group) == 0 {
			cur.mode = keybind.ModeNames
		}
		c.logger.Debug("showing window", "mode", cur.mode)

		var (
			next step
			err  error
		)
		switch cur.mode {
		case keybind.ModeNames:
			next, err = c.showNames(ctx)
		case keybind.ModeGroup:
			next, err = c.showIndexed(ctx, cur.group, c.group, cur.group[0].Name)
		case keybind.ModeURIs:
			next, err = c.showIndexed(ctx, c.deps.Vault.Items(), c.uris, c.prompt())
		case keybind.ModeLogins:
			next, err = c.showIndexed(ctx, c.deps.Vault.Items(), c.logins, c.prompt())
		case keybind.ModeFolders:
			next, err = c.showFolders(ctx)
		case keybind.ModeSync:
			next, err = c.sync(ctx)
		default:
			err = fmt.Errorf("unknown window mode %v", cur.mode)
		}
		if err != nil {
			return 0, vault.Item{}, err
		}
		if next.terminal {
			return next.action, next.item, nil
		}
		cur = next
	}
}

func (c *Controller) prompt() string {
	if f := c.deps.Vault.Filter(); f != nil {
		return f.Name
	}
	return c.opts.Prompt
}

func (c *Controller) show(ctx context.Context, labels []string, prompt string) (menu.Selection, error) {
	sel, err := c.deps.Menu.ShowList(ctx, labels, prompt)
	if err != nil {
		return menu.Selection{}, err
	}
	if sel.Aborted {
		return sel, errAborted
	}
	return sel, nil
}

func (c *Controller) showNames(ctx context.Context) (step, error) {
	sel, err := c.show(ctx, uniqueNames(c.deps.Vault.Items()), c.prompt())
	if err != nil {
		return step{}, err
	}
	c.logger.Debug("user selected name", "label", sel.Label)

	if mode, ok := sel.Target.(keybind.WindowMode); ok {
		return step{mode: mode}, nil
	}

	matches := c.deps.Vault.ByName(sel.Label)
	if name, ok := groupName(sel.Label); ok && len(matches) == 0 {
		c.logger.Debug("user selected item group", "name", name)
		return step{mode: keybind.ModeGroup, group: c.deps.Vault.ByName(name)}, nil
	}
	if len(matches) == 0 {
		return step{}, fmt.Errorf("%w: %q", errNoSelected, sel.Label)
	}
	return c.actionStep(sel.Target, matches[0]), nil
}

func (c *Controller) showIndexed(ctx context.Context, items []vault.Item, p Projection, prompt string) (step, error) {
	kept, labels := indexed(items, p)
	sel, err := c.show(ctx, labels, prompt)
	if err != nil {
		return step{}, err
	}
	if mode, ok := sel.Target.(keybind.WindowMode); ok {
		return step{mode: mode}, nil
	}
	it, err := pickIndexed(kept, sel.Label)
	if err != nil {
		return step{}, err
	}
	return c.actionStep(sel.Target, it), nil
}

// showFolders lets the user pick the folder filter. Picking always leads
// to another window: the bound mode if the key names one, else names.
func (c *Controller) showFolders(ctx context.Context) (step, error) {
	sel, err := c.show(ctx, folderNames(c.deps.Vault.Folders()), c.prompt())
	if err != nil {
		return step{}, err
	}

	f, ok := c.deps.Vault.FolderByName(sel.Label)
	if !ok {
		return step{}, fmt.Errorf("unknown folder %q", sel.Label)
	}
	c.deps.Vault.SetFilter(&f)
	c.logger.Info("folder filter set", "folder", f.Name, "cleared", f.IsNoFolder())

	if mode, ok := sel.Target.(keybind.WindowMode); ok {
		return step{mode: mode}, nil
	}
	return step{mode: keybind.ModeNames}, nil
}

func (c *Controller) sync(ctx context.Context) (step, error) {
	c.logger.Info("received sync command")
	if _, err := c.deps.Vault.Sync(ctx); err != nil {
		return step{}, err
	}
	return step{mode: keybind.ModeNames}, nil
}
