package dashboard

import (
	"context"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/ledger"
)

// find returns the listed client with id. Callers hold mu.
func (v *View) find(id admin.ID) (int, *admin.Client) {
	for i, c := range v.list {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

// QuotaLimits returns the smallest and largest quota the client with id may
// be given according to the local ledger. A zero id means a new client.
func (v *View) QuotaLimits(id admin.ID) (min, max admin.ByteCount, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var editing *admin.Client
	if id.Valid() {
		if _, editing = v.find(id); editing == nil {
			return 0, 0, admin.ErrClientNotFound
		}
		min = editing.UsedSpace
	}
	return min, ledger.RemainingCapacityFor(v.ledger, editing), nil
}

// EditLimits asks the server for the largest quota the client with id may
// hold. The smallest is its used space.
func (v *View) EditLimits(ctx context.Context, id admin.ID) (min, max admin.ByteCount, err error) {
	if err := v.session.Guard(ctx); err != nil {
		return 0, 0, err
	}
	defer v.loads.Track(SourceEditLimits)()

	max, err = v.storage.CapacityPlusQuota(ctx, id)
	if err != nil {
		return 0, 0, v.fail(ctx, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, c := v.find(id); c != nil {
		min = c.UsedSpace
	}
	return min, max, nil
}

// CreateClient validates the quota against the ledger, creates the client
// and adds it to the ledger. Nothing is sent when validation fails.
func (v *View) CreateClient(ctx context.Context, name string, quota QuotaInput) (*admin.Client, error) {
	if err := v.session.Guard(ctx); err != nil {
		return nil, err
	}
	if err := admin.ValidClientName(name); err != nil {
		return nil, err
	}
	bytes, err := quota.Bytes()
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	l, gen := v.ledger, v.gen
	v.mu.Unlock()
	if err := ledger.ValidateQuota(l, nil, bytes); err != nil {
		return nil, err
	}

	defer v.loads.Track(SourceCreateClient)()
	c := &admin.Client{Name: name, Quota: bytes}
	if err := v.clients.CreateClient(ctx, c); err != nil {
		return nil, v.fail(ctx, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current(gen) {
		v.list = append(v.list, c)
		v.ledger = ledger.ApplyCreateOrUpdate(v.ledger, nil, c)
		v.bumpAggregates(nil, c)
	}
	v.notices = append(v.notices, Notice{Message: "Client " + c.Name + " created"})
	cp := *c
	return &cp, nil
}

// UpdateClient renames the client with id and/or changes its quota. A nil
// name or quota leaves that field untouched. The quota is checked against
// [UsedSpace, RemainingCapacityFor] before anything is sent.
func (v *View) UpdateClient(ctx context.Context, id admin.ID, name *string, quota *QuotaInput) (*admin.Client, error) {
	if err := v.session.Guard(ctx); err != nil {
		return nil, err
	}

	v.mu.Lock()
	_, existing := v.find(id)
	var old admin.Client
	if existing != nil {
		old = *existing
	}
	l := v.ledger
	v.mu.Unlock()
	if existing == nil {
		return nil, admin.ErrClientNotFound
	}

	var upd admin.ClientUpdate
	if name != nil {
		if err := admin.ValidClientName(*name); err != nil {
			return nil, err
		}
		upd.Name = name
	}
	if quota != nil {
		bytes, err := quota.Bytes()
		if err != nil {
			return nil, err
		}
		if err := ledger.ValidateQuota(l, &old, bytes); err != nil {
			return nil, err
		}
		upd.Quota = &bytes
	}

	defer v.loads.Track(SourceUpdateClient)()
	updated, err := v.clients.UpdateClient(ctx, id, upd)
	if err != nil {
		return nil, v.fail(ctx, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if i, cur := v.find(id); v.alive && cur != nil {
		prev := *cur
		v.list[i] = updated
		v.ledger = ledger.ApplyCreateOrUpdate(v.ledger, &prev, updated)
		v.bumpAggregates(&prev, updated)
	}
	v.notices = append(v.notices, Notice{Message: "Client " + updated.Name + " updated"})
	cp := *updated
	return &cp, nil
}

// DeleteClient deletes the client with id and removes its share from the
// ledger.
func (v *View) DeleteClient(ctx context.Context, id admin.ID) error {
	if err := v.session.Guard(ctx); err != nil {
		return err
	}

	defer v.loads.Track(SourceDeleteClient)()
	if err := v.clients.DeleteClient(ctx, id); err != nil {
		return v.fail(ctx, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if i, removed := v.find(id); v.alive && removed != nil {
		v.list = append(v.list[:i:i], v.list[i+1:]...)
		v.ledger = ledger.ApplyDelete(v.ledger, removed)
		v.bumpAggregates(removed, nil)
		v.notices = append(v.notices, Notice{Message: "Client " + removed.Name + " deleted"})
	}
	return nil
}

// bumpAggregates keeps the resolved aggregate fields in step with the
// ledger so a later recompute does not undo a mutation. Callers hold mu.
func (v *View) bumpAggregates(old, updated *admin.Client) {
	for _, src := range []string{SourceTotalQuota, SourceUsedSpace} {
		if !v.resolved[src] {
			continue
		}
		l := ledger.Ledger{TotalQuota: v.fields[SourceTotalQuota], TotalUsed: v.fields[SourceUsedSpace]}
		l = ledger.ApplyCreateOrUpdate(l, old, updated)
		if src == SourceTotalQuota {
			v.fields[src] = l.TotalQuota
		} else {
			v.fields[src] = l.TotalUsed
		}
	}
}
