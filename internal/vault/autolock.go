package vault

import (
	"time"
)

// armAutoLock (re)starts the inactivity timer from the current settings.
// Callers hold d.mu.
func (d *Database) armAutoLock() {
	d.stopAutoLock()
	if d.data == nil {
		return
	}

	timeout := time.Duration(d.data.Settings.AutoLockTimeout) * d.autoLockUnit
	if timeout <= 0 {
		return
	}

	gen := d.timerGen
	d.timer = time.AfterFunc(timeout, func() {
		d.autoLock(gen)
	})
}

// stopAutoLock cancels the timer. Bumping the generation also defuses a
// callback that already fired and is waiting for d.mu.
func (d *Database) stopAutoLock() {
	d.timerGen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// touch re-arms the timer after a successful operation
func (d *Database) touch() {
	if !d.locked {
		d.armAutoLock()
	}
}

func (d *Database) autoLock(gen uint64) {
	d.mu.Lock()
	if gen != d.timerGen || d.locked {
		d.mu.Unlock()
		return
	}
	d.lockLocked()
	d.mu.Unlock()

	d.log.Info("vault auto-locked after inactivity")
	if d.onLock != nil {
		d.onLock(true)
	}
}
