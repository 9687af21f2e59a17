// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package messaging sends admin announcements to devices and tracks delivery
per device.

# Sending

A message targets one team or every device:

	res, err := messaging.Send(ctx, db, models.MessageTarget{TeamID: 3}, "Meet at the gate")
	res, err := messaging.Send(ctx, db, models.MessageTarget{Broadcast: true}, "Ten minutes left")

Send writes the message and one pending delivery row per targeted device in
a single transaction. Recipients are the devices that exist at send time.

# Polling

Devices poll for their pending messages:

	msgs, serverTime, err := messaging.FetchAndMarkDelivered(ctx, db, userID)

Each message reaches each device exactly once. Messages come back oldest
first, and an empty poll returns an empty slice.

# History

History backs the admin portal's message log with delivered and total
counts per message.
*/
package messaging
