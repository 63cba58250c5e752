package types

// CallerRole classifies who is asking to execute or cancel a request
type CallerRole int

const (
	// CallerPublic is any account that is not an allow-listed keeper
	CallerPublic CallerRole = iota
	// CallerKeeper is an allow-listed position keeper
	CallerKeeper
	// CallerSelf is the router's own batch driver
	CallerSelf
)

func (r CallerRole) String() string {
	switch r {
	case CallerKeeper:
		return "keeper"
	case CallerSelf:
		return "self"
	default:
		return "public"
	}
}

// privileged callers are admitted on block delay instead of wall time
func (r CallerRole) privileged() bool {
	return r == CallerKeeper || r == CallerSelf
}

// Clock is a (block height, block time in unix seconds) pair
type Clock struct {
	Height int64
	Time   int64
}

// Since returns the height and time elapsed from c to now
func (c Clock) Since(now Clock) (blocks int64, seconds int64) {
	return now.Height - c.Height, now.Time - c.Time
}

func (p Params) checkLeverage(role CallerRole) error {
	if !p.IsLeverageEnabled && role != CallerSelf {
		return ErrLeverageDisabled
	}
	return nil
}

// CanExecute reports whether a request created at created may be executed at now.
// A false result with a nil error means "not yet"; an expired request returns
// ErrRequestExpired and must be cancelled instead.
func (p Params) CanExecute(role CallerRole, created, now Clock) (bool, error) {
	if err := p.checkLeverage(role); err != nil {
		return false, err
	}

	blocks, seconds := created.Since(now)
	if seconds > p.MaxTimeDelay {
		return false, ErrRequestExpired.Wrapf("%ds elapsed, max delay %ds", seconds, p.MaxTimeDelay)
	}

	if role.privileged() {
		return blocks >= p.MinBlockDelayKeeper, nil
	}
	return seconds >= p.MinTimeDelayPublic, nil
}

// CanCancel reports whether caller may cancel a request owned by owner.
// Cancellation never expires.
func (p Params) CanCancel(role CallerRole, owner, caller string, created, now Clock) (bool, error) {
	if err := p.checkLeverage(role); err != nil {
		return false, err
	}

	blocks, seconds := created.Since(now)
	if role.privileged() {
		return blocks >= p.MinBlockDelayKeeper, nil
	}

	if caller != owner {
		return false, ErrForbidden.Wrapf("caller %s, owner %s", caller, owner)
	}
	return seconds >= p.MinTimeDelayPublic, nil
}
