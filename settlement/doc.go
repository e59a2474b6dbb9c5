// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package settlement decides and records the outcome of group-buying pools.

A pool is open until it settles into success or failed, exactly once. Two
triggers settle pools:

  - CheckEarly runs after every join and settles a pool as successful the
    moment its requested quantity reaches the minimum. It never fails a pool.
  - Sweep runs on a schedule and settles every open pool whose deadline has
    passed, as success or failed depending on the total.

Both go through the same transaction:

	read pool -> TotalJoined -> Decide -> Compose
	UPDATE pool SET status = ... WHERE id = ? AND status = 'open'
	INSERT settlement (UNIQUE pool_id)
	Publish
	COMMIT

Whichever trigger updates the row first wins; the other sees zero affected
rows and stops without notifying. A publish error rolls the transaction back,
so the pool stays open and the next trigger retries.

# Notifications

Compose renders a subject and plain-text body from a Summary. Early success,
deadline success and failure each have their own wording; the body lists the
minimum, the total reached and the roster of "<email> (<qty>u)" entries in
join order.
*/
package settlement
