package sim

import (
	"fmt"
	"log"
	"reflect"
)

// HookPosPortMsgSend marks when a message is accepted by the peer of the
// sending port.
var HookPosPortMsgSend = &HookPos{Name: "Port Msg Send"}

// HookPosPortMsgRejected marks when the peer refuses a message.
var HookPosPortMsgRejected = &HookPos{Name: "Port Msg Rejected"}

// HookPosPortMsgRecvd marks when an inbound message is accepted by the owner
// of the port.
var HookPosPortMsgRecvd = &HookPos{Name: "Port Msg Recv"}

// HookPosPortRetry marks when the port is told that its peer can take a
// message again.
var HookPosPortRetry = &HookPos{Name: "Port Retry"}

// PortRole tags which side of a request/response link a port sits on.
type PortRole int

const (
	// UpstreamFacing ports receive requests and send responses.
	UpstreamFacing PortRole = iota

	// DownstreamFacing ports send requests and receive responses.
	DownstreamFacing
)

func (r PortRole) String() string {
	switch r {
	case UpstreamFacing:
		return "UpstreamFacing"
	case DownstreamFacing:
		return "DownstreamFacing"
	default:
		return fmt.Sprintf("PortRole(%d)", int(r))
	}
}

// A Port is one end of a point-to-point timing link. Sending is a synchronous
// offer: the peer either takes the message or refuses it. A refusal is always
// followed, at some later time, by a retry from the side that refused.
type Port interface {
	Named
	Hookable

	Role() PortRole
	Owner() PortOwner
	Peer() Port
	SetPeer(peer Port)

	// Send offers msg to the peer. It returns false if the peer cannot take
	// it now.
	Send(msg Msg) bool

	// SendRetry tells the peer that it may resend what this side refused.
	SendRetry()

	// Deliver is called by the peer's Send.
	Deliver(msg Msg) bool

	// NotifyRetry is called by the peer's SendRetry.
	NotifyRetry()
}

type defaultPort struct {
	HookableBase

	name  string
	role  PortRole
	owner PortOwner
	peer  Port
}

// NewPort creates a new port with default behavior.
func NewPort(owner PortOwner, role PortRole, name string) Port {
	return &defaultPort{
		name:  name,
		role:  role,
		owner: owner,
	}
}

// Connect binds two ports of opposite roles to each other.
func Connect(a, b Port) {
	if a.Role() == b.Role() {
		log.Panicf("cannot connect %s and %s, both are %s",
			a.Name(), b.Name(), a.Role())
	}

	a.SetPeer(b)
	b.SetPeer(a)
}

func (p *defaultPort) Name() string {
	return p.name
}

func (p *defaultPort) Role() PortRole {
	return p.role
}

func (p *defaultPort) Owner() PortOwner {
	return p.owner
}

func (p *defaultPort) Peer() Port {
	return p.peer
}

// SetPeer sets the port on the other side of the link.
func (p *defaultPort) SetPeer(peer Port) {
	if p.peer != nil {
		log.Panicf("port %s already connected to %s, now connecting to %s",
			p.name, p.peer.Name(), peer.Name())
	}

	p.peer = peer
}

func (p *defaultPort) Send(msg Msg) bool {
	p.msgMustMatchRole(msg)
	p.mustBeConnected()

	accepted := p.peer.Deliver(msg)

	pos := HookPosPortMsgSend
	if !accepted {
		pos = HookPosPortMsgRejected
	}

	if p.NumHooks() > 0 {
		p.InvokeHook(HookCtx{Domain: p, Pos: pos, Item: msg})
	}

	return accepted
}

func (p *defaultPort) SendRetry() {
	p.mustBeConnected()
	p.peer.NotifyRetry()
}

func (p *defaultPort) Deliver(msg Msg) bool {
	accepted := p.owner.RecvMsg(p, msg)

	if accepted && p.NumHooks() > 0 {
		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPortMsgRecvd, Item: msg})
	}

	return accepted
}

func (p *defaultPort) NotifyRetry() {
	if p.NumHooks() > 0 {
		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPortRetry})
	}

	p.owner.RecvRetry(p)
}

func (p *defaultPort) mustBeConnected() {
	if p.peer == nil {
		log.Panicf("port %s is not connected", p.name)
	}
}

func (p *defaultPort) msgMustMatchRole(msg Msg) {
	isRsp := IsRsp(msg)

	if p.role == DownstreamFacing && isRsp {
		log.Panicf("port %s faces downstream, cannot send response %s",
			p.name, reflect.TypeOf(msg))
	}

	if p.role == UpstreamFacing && !isRsp {
		log.Panicf("port %s faces upstream, cannot send request %s",
			p.name, reflect.TypeOf(msg))
	}
}
