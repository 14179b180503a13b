package main

import "encoding/json"

// Client -> Server message types
const (
	MsgLogin  = "login"  // commander passphrase
	MsgAuth   = "auth"   // resume with a token
	MsgDest   = "dest"   // move ships to a point
	MsgTarget = "target" // engage / mine / repair a body
	MsgSelect = "select" // toggle selection
	MsgStop   = "stop"   // drop orders
	MsgPause  = "pause"  // freeze or resume the simulation
)

// Server -> Client message types
const (
	MsgState    = "state" // sent as a binary msgpack frame
	MsgWelcome  = "welcome"
	MsgAuthOK   = "auth_ok"
	MsgDisabled = "disabled"
	MsgPaused   = "paused"
	MsgError    = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; Data stays raw until the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// LoginMsg carries the commander passphrase
type LoginMsg struct {
	Password string `json:"password"`
}

// AuthMsg carries a previously issued token
type AuthMsg struct {
	Token string `json:"token"`
}

// DestMsg orders ships to fly to (X, Y)
type DestMsg struct {
	IDs []Handle `json:"ids"`
	X   float64  `json:"x"`
	Y   float64  `json:"y"`
}

// TargetMsg orders ships to engage Target
type TargetMsg struct {
	IDs    []Handle `json:"ids"`
	Target Handle   `json:"target"`
}

// SelectMsg marks ships selected or not
type SelectMsg struct {
	IDs []Handle `json:"ids"`
	On  bool     `json:"on"`
}

// StopMsg drops the orders of ships
type StopMsg struct {
	IDs []Handle `json:"ids"`
}

// PauseMsg freezes (On) or resumes the simulation
type PauseMsg struct {
	On bool `json:"on"`
}

// EntityState is broadcast per body
type EntityState struct {
	ID         Handle         `json:"id" msgpack:"id"`
	Name       string         `json:"n" msgpack:"n"`
	Kind       string         `json:"k" msgpack:"k"`
	Faction    string         `json:"f" msgpack:"f"`
	X          float64        `json:"x" msgpack:"x"`
	Y          float64        `json:"y" msgpack:"y"`
	R          float64        `json:"r" msgpack:"r"` // rotation radians
	VX         float64        `json:"vx" msgpack:"vx"`
	VY         float64        `json:"vy" msgpack:"vy"`
	Hull       *int           `json:"h,omitempty" msgpack:"h,omitempty"` // absent for asteroids and wrecks
	Cells      int            `json:"c" msgpack:"c"`
	Grid       [][]uint8      `json:"g" msgpack:"g"`
	Selected   bool           `json:"s,omitempty" msgpack:"s,omitempty"`
	RepairCost map[string]int `json:"rc,omitempty" msgpack:"rc,omitempty"`
	Beam       *BeamState     `json:"b,omitempty" msgpack:"b,omitempty"`
}

// BeamState describes an active miner beam
type BeamState struct {
	Target Handle  `json:"t" msgpack:"t"`
	OX     float64 `json:"ox" msgpack:"ox"` // emitter position
	OY     float64 `json:"oy" msgpack:"oy"`
	CellX  int     `json:"cx" msgpack:"cx"`
	CellY  int     `json:"cy" msgpack:"cy"`
	Charge int     `json:"ch" msgpack:"ch"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	R       float64 `json:"r" msgpack:"r"`
	Faction string  `json:"f" msgpack:"f"`
	Tier    int     `json:"t" msgpack:"t"`
}

// BattleState is the full state broadcast
type BattleState struct {
	Entities    []EntityState     `json:"e" msgpack:"e"`
	Projectiles []ProjectileState `json:"pr" msgpack:"pr"`
	Pool        map[string]int    `json:"pool" msgpack:"pool"`
	Tick        uint64            `json:"tick" msgpack:"tick"`
	Paused      bool              `json:"paused,omitempty" msgpack:"paused,omitempty"`
}

// WelcomeMsg is sent to every viewer on connect
type WelcomeMsg struct {
	Battle string `json:"battle"`
	Tick   uint64 `json:"tick"`
}

// AuthOKMsg confirms commander rights
type AuthOKMsg struct {
	Token string `json:"token"`
}

// DisabledMsg announces a ship reduced to a wreck
type DisabledMsg struct {
	ID      Handle `json:"id"`
	Name    string `json:"n"`
	Faction string `json:"f"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
