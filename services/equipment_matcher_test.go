package services

import "testing"

func TestMatchEquipmentToDisciplineExactSpecific(t *testing.T) {
	items := []EquipmentDetail{
		{SourceDiscipline: "Piping", Description: "Crane 60T", TotalCost: 50000},
		{SourceDiscipline: "Piping", Description: "Welding machines", TotalCost: 35000},
		{SourceDiscipline: "Electrical", Description: "Scissor lift", TotalCost: 12000},
	}

	matched, warnings := MatchEquipmentToDiscipline("Piping", 85000, items, nil)
	if len(matched) != 2 {
		t.Fatalf("matched %d records, want 2", len(matched))
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestMatchEquipmentToDisciplineBroadensToProjectWide(t *testing.T) {
	items := []EquipmentDetail{
		{SourceDiscipline: "Piping", Description: "Crane 60T", TotalCost: 50000},
		{SourceDiscipline: "", Description: "Light towers", TotalCost: 20000},
		{SourceDiscipline: "GENERAL", Description: "Fuel truck", TotalCost: 15000},
	}

	matched, warnings := MatchEquipmentToDiscipline("Piping", 85000, items, nil)
	if len(matched) != 3 {
		t.Fatalf("matched %d records, want 3 after broadening", len(matched))
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestMatchEquipmentToDisciplineFallbackToAll(t *testing.T) {
	items := []EquipmentDetail{
		{SourceDiscipline: "Electrical", Description: "Scissor lift", TotalCost: 12000},
		{SourceDiscipline: "Civil", Description: "Excavator", TotalCost: 48000},
	}

	matched, _ := MatchEquipmentToDiscipline("Piping", 60000, items, nil)
	if len(matched) != 2 {
		t.Fatalf("matched %d records, want all 2 as last resort", len(matched))
	}
}

func TestMatchEquipmentToDisciplineResidualWarning(t *testing.T) {
	items := []EquipmentDetail{
		{SourceDiscipline: "Piping", Description: "Crane 60T", TotalCost: 50000},
	}

	matched, warnings := MatchEquipmentToDiscipline("Piping", 85000, items, nil)
	if len(matched) != 1 {
		t.Fatalf("matched %d records, want 1", len(matched))
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one discrepancy warning", warnings)
	}
}

func TestMatchEquipmentToDisciplineAlias(t *testing.T) {
	items := []EquipmentDetail{
		{SourceDiscipline: "PIPE", Description: "Crane 60T", TotalCost: 85000},
	}
	aliases := map[string]string{"PIPE": "Piping"}

	matched, warnings := MatchEquipmentToDiscipline("Piping", 85000, items, aliases)
	if len(matched) != 1 {
		t.Fatalf("matched %d records, want 1 via alias", len(matched))
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}
