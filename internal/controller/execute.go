package controller

import (
	"context"
	"fmt"

	"github.com/zach-source/bwrofi/internal/keybind"
	"github.com/zach-source/bwrofi/internal/secret"
	"github.com/zach-source/bwrofi/internal/vault"
)

func (c *Controller) execute(ctx context.Context, action keybind.ItemAction, it vault.Item) error {
	c.logger.Info("executing item action", "action", action, "item", it.Name)
	switch action {
	case keybind.ActionCopy:
		return c.copyPassword(ctx, it)
	case keybind.ActionTypeAll:
		return c.typeAll(ctx, it)
	case keybind.ActionTypePassword:
		return c.typePassword(ctx, it)
	case keybind.ActionCopyTOTP:
		return c.copyTOTP(ctx, it)
	default:
		return fmt.Errorf("unknown item action %v", action)
	}
}

func (c *Controller) full(ctx context.Context, it vault.Item) (vault.Item, error) {
	full, err := c.deps.Vault.Full(ctx, it)
	if err != nil {
		return vault.Item{}, err
	}
	if full.Login == nil {
		return vault.Item{}, fmt.Errorf("%w: %s", ErrNoLogin, it.Name)
	}
	return full, nil
}

func (c *Controller) notify(ctx context.Context, msg string) {
	if c.deps.Notifier == nil {
		return
	}
	timeout := c.opts.ClearAfter
	if timeout < 0 {
		timeout = 0
	}
	if err := c.deps.Notifier.Send(ctx, msg, timeout); err != nil {
		c.logger.Warn("failed to send notification", "err", err)
	}
}

// copyAndClear puts value on the clipboard and wipes it after ClearAfter.
func (c *Controller) copyAndClear(ctx context.Context, value *secret.Secret, msg string) error {
	if err := c.deps.Clipboard.Set(ctx, value); err != nil {
		return err
	}
	if c.opts.ClearAfter < 0 {
		c.notify(ctx, msg)
		return nil
	}
	c.notify(ctx, fmt.Sprintf("%s, clearing in %s", msg, c.opts.ClearAfter))
	if err := c.sleep(ctx, c.opts.ClearAfter); err != nil {
		// Still clear on interrupt.
		ctx = context.WithoutCancel(ctx)
	}
	return c.deps.Clipboard.Clear(ctx)
}

func (c *Controller) copyPassword(ctx context.Context, it vault.Item) error {
	full, err := c.full(ctx, it)
	if err != nil {
		return err
	}
	pw := secret.New(full.Password())
	defer pw.Zero()
	return c.copyAndClear(ctx, pw, "Copied password for "+it.Name)
}

func (c *Controller) copyTOTP(ctx context.Context, it vault.Item) error {
	code, err := c.deps.Vault.TOTP(ctx, it)
	if err != nil {
		return err
	}
	if code == "" {
		c.logger.Warn("selected item does not provide a TOTP", "item", it.Name)
		return fmt.Errorf("%w: %s", ErrNoTOTP, it.Name)
	}
	totp := secret.New(code)
	defer totp.Zero()
	return c.copyAndClear(ctx, totp, "Copied TOTP for "+it.Name)
}

// prepareTyping focuses the target window, or waits StartDelay so the
// user can focus it. It returns errAborted when window selection is
// cancelled.
func (c *Controller) prepareTyping(ctx context.Context) error {
	if c.deps.Typer == nil {
		return ErrNoTyper
	}
	if c.deps.Focus != nil && c.deps.Focus.Enabled() {
		ok, err := c.deps.Focus.SelectWindow(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
		return nil
	}
	return c.sleep(ctx, c.opts.StartDelay)
}

func (c *Controller) typeAll(ctx context.Context, it vault.Item) error {
	full, err := c.full(ctx, it)
	if err != nil {
		return err
	}
	if err := c.prepareTyping(ctx); err != nil {
		return err
	}
	c.notify(ctx, "Typing username and password for "+it.Name)

	pw := secret.New(full.Password())
	defer pw.Zero()

	steps := []func() error{
		func() error { return c.deps.Typer.Type(ctx, []byte(full.Username())) },
		func() error { return c.sleep(ctx, c.opts.KeyDelay) },
		func() error { return c.deps.Typer.Key(ctx, "Tab") },
		func() error { return c.sleep(ctx, c.opts.KeyDelay) },
		func() error { return c.deps.Typer.Type(ctx, pw.Bytes()) },
	}
	for _, s := range steps {
		if err := s(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) typePassword(ctx context.Context, it vault.Item) error {
	full, err := c.full(ctx, it)
	if err != nil {
		return err
	}
	if err := c.prepareTyping(ctx); err != nil {
		return err
	}
	pw := secret.New(full.Password())
	defer pw.Zero()
	return c.deps.Typer.Type(ctx, pw.Bytes())
}
