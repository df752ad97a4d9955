package client

import (
	"context"
	"errors"

	"github.com/opd-ai/rpvoice/transport"
	"github.com/sirupsen/logrus"
)

// exchange performs one protocol exchange over a fresh session.
type exchange func(sess *transport.Session) error

// run executes fn with the bounded retry policy. Every failed attempt
// advances the peer's port offset; after MaxAttempts failures run returns an
// *AttemptError. The attempt counter is local to this call and the client
// returns to StateIdle before run returns.
func (c *Client) run(ctx context.Context, op, requestID string, fn exchange) error {
	select {
	case c.ops <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.ops }()

	defer func() {
		c.attempts.Store(0)
		c.setState(StateIdle)
	}()

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.attempt(ctx, fn)
		if err == nil {
			c.setState(StateClosed)
			if attempts > 0 {
				logrus.WithFields(logrus.Fields{
					"function":   op,
					"request_id": requestID,
					"attempts":   attempts + 1,
					"port":       c.peer.Port(),
				}).Info("Operation succeeded after retry")
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		c.setState(StatePortAdvance)
		cycle := c.peer.Advance()
		attempts++
		c.attempts.Store(int32(attempts))

		logrus.WithFields(logrus.Fields{
			"function":     op,
			"request_id":   requestID,
			"attempt":      attempts,
			"max_attempts": c.cfg.MaxAttempts,
			"port_cycle":   cycle,
			"error":        err.Error(),
		}).Debug("Attempt failed")

		if attempts >= c.cfg.MaxAttempts {
			c.connected.Store(false)
			c.setState(StateFailed)

			logrus.WithFields(logrus.Fields{
				"function":   op,
				"request_id": requestID,
				"attempts":   attempts,
				"error":      err.Error(),
			}).Error("Giving up after exhausting retries")

			return &AttemptError{Op: op, Attempts: attempts, Err: err}
		}
	}
}

// attempt dials a fresh session, runs fn on it and always closes it.
func (c *Client) attempt(ctx context.Context, fn exchange) error {
	c.setState(StateConnecting)
	sess, err := c.dialer.Dial(ctx, c.peer)
	if err != nil {
		c.setState(StateConnectFailed)
		return err
	}
	c.connected.Store(true)
	c.setState(StateConnected)

	stop := context.AfterFunc(ctx, func() { sess.Close() })
	defer func() {
		stop()
		sess.Close()
		c.connected.Store(false)
	}()

	c.setState(StateTransferring)
	if err := fn(sess); err != nil {
		c.setState(StateConnectFailed)
		return err
	}
	return nil
}

// finishPush converts an exhausted push into ErrSendFailed and posts the
// failure notification.
func (c *Client) finishPush(op, requestID string, err error) error {
	if err == nil {
		return nil
	}
	var attemptErr *AttemptError
	if !errors.As(err, &attemptErr) {
		return err
	}

	c.notifySendFailure(SendFailure{
		Op:        op,
		RequestID: requestID,
		Attempts:  attemptErr.Attempts,
		Err:       attemptErr.Err,
	})
	return errors.Join(ErrSendFailed, err)
}
