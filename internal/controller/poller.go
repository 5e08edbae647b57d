package controller

import "time"

// Poll возвращает позицию текущего трека. ok == false, если сессии нет,
// трек не играет или длительность еще неизвестна.
func (c *Controller) Poll() (Progress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ref == nil || c.state != StatePlaying {
		return Progress{}, false
	}

	duration := c.ref.session.Duration()
	if duration <= 0 {
		return Progress{}, false
	}
	position := c.ref.session.Seek()

	percent := position / duration * 100
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	return Progress{
		Index:    c.ref.index,
		Position: position,
		Duration: duration,
		Percent:  percent,
	}, true
}

// pollLoop опрашивает позицию до закрытия контроллера
func (c *Controller) pollLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			p, ok := c.Poll()
			if !ok {
				continue
			}
			select {
			case c.progress <- p:
			default:
				// Читатель не успевает, пропускаем кадр
			}
		}
	}
}
