package metrics

// SetWSConnections sets the live connection gauge
func (m *Metrics) SetWSConnections(count int) {
	m.safeExecute("SetWSConnections", func() {
		m.WSConnectionsActive.Set(float64(count))
	})
}

// SetWSRooms sets the active room gauge
func (m *Metrics) SetWSRooms(count int) {
	m.safeExecute("SetWSRooms", func() {
		m.WSRoomsActive.Set(float64(count))
	})
}

// RecordWSEvent counts an inbound client event
func (m *Metrics) RecordWSEvent(event string) {
	m.safeExecute("RecordWSEvent", func() {
		m.WSEventsReceivedTotal.WithLabelValues(event).Inc()
	})
}

// RecordBroadcast counts an outbound room broadcast
func (m *Metrics) RecordBroadcast(event string) {
	m.safeExecute("RecordBroadcast", func() {
		m.WSBroadcastsTotal.WithLabelValues(event).Inc()
	})
}

// IncrementBroadcastDrops counts a message dropped for a slow consumer
func (m *Metrics) IncrementBroadcastDrops() {
	m.safeExecute("IncrementBroadcastDrops", func() {
		m.WSBroadcastDropsTotal.Inc()
	})
}

// RecordPresenceUpdate counts a presence transition by status
func (m *Metrics) RecordPresenceUpdate(status string) {
	m.safeExecute("RecordPresenceUpdate", func() {
		m.PresenceUpdatesTotal.WithLabelValues(status).Inc()
	})
}
