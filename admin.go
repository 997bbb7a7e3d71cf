package provenance

import (
	"context"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/settings"
)

// Admin returns the administrator account.
func (e *Engine) Admin(ctx context.Context) (id.AccountID, error) {
	var admin id.AccountID
	err := e.execute(ctx, func(context.Context) error {
		admin = e.settings.Admin
		return nil
	})
	return admin, err
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings(ctx context.Context) (*settings.Settings, error) {
	var st *settings.Settings
	err := e.execute(ctx, func(context.Context) error {
		cp := *e.settings
		st = &cp
		return nil
	})
	return st, err
}

// TransferAdministration hands the administrator role to newAdmin.
// Administrator only.
func (e *Engine) TransferAdministration(ctx context.Context, newAdmin id.AccountID) error {
	return e.updateSettings(ctx, "admin", func(st *settings.Settings) error {
		if newAdmin.IsNil() {
			return invalid("admin", "must not be empty")
		}
		st.Admin = newAdmin
		return nil
	})
}

// updateSettings applies mutate to a copy of the settings on behalf of the
// administrator, persists it and notifies plugins.
func (e *Engine) updateSettings(ctx context.Context, field string, mutate func(st *settings.Settings) error) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}

	var updated *settings.Settings
	err = e.execute(ctx, func(ctx context.Context) error {
		if !e.settings.IsAdmin(caller) {
			return ErrUnauthorized
		}

		cp := *e.settings
		if err := mutate(&cp); err != nil {
			return err
		}
		cp.Touch()
		if err := e.store.SaveSettings(ctx, &cp); err != nil {
			return err
		}
		e.settings = &cp

		snapshot := cp
		updated = &snapshot
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("settings changed",
		"field", field,
		"by", caller.String(),
	)
	e.plugins.EmitSettingsChanged(notify(ctx), updated, field, caller)

	return nil
}
