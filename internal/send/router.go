package send

import "github.com/afrpush/afrpush/internal/model"

// Routed is the outcome of one routing decision: the final result plus
// every attempt made along the way, in order.
type Routed struct {
	Final    model.DeliveryResult
	Attempts []model.DeliveryResult
}

// Router tries a primary sender and falls back to a second, distinct one.
// The chain is deliberately two slots deep: there is no retry loop and no
// arbitrary fallback list.
type Router struct {
	primary  Sender
	fallback Sender
	dryRun   bool
}

// NewRouter creates a router. Either sender may be nil.
func NewRouter(primary, fallback Sender, dryRun bool) *Router {
	return &Router{primary: primary, fallback: fallback, dryRun: dryRun}
}

// Configured reports whether at least one sender is wired.
func (r *Router) Configured() bool {
	return r.primary != nil || r.fallback != nil
}

// Send routes a text message.
func (r *Router) Send(target, msg string) Routed {
	return r.route(func(s Sender) model.DeliveryResult {
		return s.Send(target, msg)
	})
}

// SendImage routes an image artifact. Senders without the image capability
// produce a failed attempt, which lets the fallback take over.
func (r *Router) SendImage(target, imagePath string) Routed {
	return r.route(func(s Sender) model.DeliveryResult {
		if img, ok := s.(ImageSender); ok {
			return img.SendImage(target, imagePath)
		}
		return unsupportedImage(s.Name())
	})
}

func (r *Router) route(call func(Sender) model.DeliveryResult) Routed {
	if r.dryRun {
		result := model.DeliveryResult{
			Channel:         "dry-run",
			Success:         true,
			ResponseExcerpt: "dry run mode",
		}
		return Routed{Final: result, Attempts: []model.DeliveryResult{result}}
	}

	var attempts []model.DeliveryResult

	if r.primary != nil {
		result := call(r.primary)
		attempts = append(attempts, result)
		if result.Success {
			return Routed{Final: result, Attempts: attempts}
		}
	}

	if r.fallback != nil && (r.primary == nil || r.fallback.Name() != r.primary.Name()) {
		result := call(r.fallback)
		attempts = append(attempts, result)
		return Routed{Final: result, Attempts: attempts}
	}

	if len(attempts) > 0 {
		return Routed{Final: attempts[len(attempts)-1], Attempts: attempts}
	}

	failed := model.DeliveryResult{
		Channel:      "none",
		Success:      false,
		ErrorMessage: "no sender configured",
	}
	return Routed{Final: failed, Attempts: []model.DeliveryResult{failed}}
}
