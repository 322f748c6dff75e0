package rig

// Wheel is either a *SimpleWheel or an *AdvancedWheel.
type Wheel interface {
	Base() *WheelBase
	wheel()
}

// WheelBase holds the attributes common to both wheel kinds.
type WheelBase struct {
	Node1, Node2 string
	SNode        string
	ArmNode      string
	BrakeType    int
	DriveType    int
	Width        float64
	NumRays      int
	Mass         float64
}

func (b *WheelBase) Base() *WheelBase { return b }

// SimpleWheel comes from the "wheels" section.
type SimpleWheel struct {
	WheelBase
	Radius float64
	Spring float64
	Damp   float64
}

// AdvancedWheel comes from "wheels2" and "flexbodywheels" and has a
// separate tire and hub.
type AdvancedWheel struct {
	WheelBase
	TireRadius float64
	HubRadius  float64
	TireSpring float64
	TireDamp   float64
	HubSpring  float64
	HubDamp    float64
}

func (*SimpleWheel) wheel()   {}
func (*AdvancedWheel) wheel() {}
