package dyncachectrl

import (
	"log"

	"github.com/sarchlab/dyncache/sim"
)

// flowController keeps the single request that a path refused and owes the
// requester a retry for every request the controller rejected.
type flowController struct {
	ctrl *Comp

	blocked     sim.Msg
	blockedPort sim.Port

	needUpstreamRetry bool

	// Downstream ports whose responses the requester refused, in the order
	// of refusal.
	rspRetryPorts []sim.Port
}

func (f *flowController) isBlocked() bool {
	return f.blocked != nil
}

// reject refuses a request from the requester and remembers to send it a
// retry.
func (f *flowController) reject() bool {
	f.needUpstreamRetry = true
	return false
}

// dispatch sends req through port. A request refused by the path is kept and
// still counts as accepted.
func (f *flowController) dispatch(req sim.Msg, port sim.Port) bool {
	if f.isBlocked() {
		return f.reject()
	}

	if port.Send(req) {
		return true
	}

	f.blocked = req
	f.blockedPort = port

	f.ctrl.log.V(1).Info("path busy, holding request",
		"port", port.Name(), "req", req.Meta().ID)

	return true
}

// onDownstreamCapacity resends the held request after the path it waits on
// can take it again.
func (f *flowController) onDownstreamCapacity(port sim.Port) {
	if !f.isBlocked() {
		log.Panicf("%s: retry from %s but no request is held",
			f.ctrl.Name(), port.Name())
	}

	if port != f.blockedPort {
		f.ctrl.log.V(1).Info("ignoring retry from a port not waited on",
			"port", port.Name(), "waiting-on", f.blockedPort.Name())
		return
	}

	if !port.Send(f.blocked) {
		return
	}

	f.blocked = nil
	f.blockedPort = nil

	if f.needUpstreamRetry {
		f.retryUpstream()
	}
}

func (f *flowController) retryUpstream() {
	f.needUpstreamRetry = false
	f.ctrl.topPort.SendRetry()
}

// relayRsp forwards a response from a path to the requester. While earlier
// responses wait for the requester, later ones are refused so that the
// order is kept.
func (f *flowController) relayRsp(from sim.Port, rsp sim.Msg) bool {
	if len(f.rspRetryPorts) > 0 || !f.ctrl.topPort.Send(rsp) {
		f.addRspRetryPort(from)
		return false
	}

	return true
}

func (f *flowController) addRspRetryPort(port sim.Port) {
	for _, p := range f.rspRetryPorts {
		if p == port {
			return
		}
	}

	f.rspRetryPorts = append(f.rspRetryPorts, port)
}

// onUpstreamCapacity lets every path whose response was refused resend it.
func (f *flowController) onUpstreamCapacity() {
	ports := f.rspRetryPorts
	f.rspRetryPorts = nil

	for _, p := range ports {
		p.SendRetry()
	}
}
