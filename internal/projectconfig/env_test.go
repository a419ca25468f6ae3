package projectconfig

import (
	"strings"
	"testing"
)

func TestEnvFromEnviron(t *testing.T) {
	env, err := EnvFromEnviron([]string{
		"PATH=/usr/bin",
		"BENCHGATE_TOTAL_PARTITIONS=3",
		"BENCHGATE_PARTITION_ID=0",
		"BENCHGATE_EXCLUDE=vit, detectron2 ,,gpt2",
		"BENCHGATE_DEVICE=cpu",
		"BENCHGATE_SOMETHING_ELSE=ignored",
	})
	if err != nil {
		t.Fatalf("EnvFromEnviron: %v", err)
	}

	if env.TotalPartitions == nil || *env.TotalPartitions != 3 {
		t.Errorf("TotalPartitions = %v, want 3", env.TotalPartitions)
	}
	if env.PartitionID == nil || *env.PartitionID != 0 {
		t.Errorf("PartitionID = %v, want 0 (zero must be distinguishable from unset)", env.PartitionID)
	}
	assertEqual(t, "Exclude", "vit|detectron2|gpt2", strings.Join(env.Exclude, "|"))
	assertEqual(t, "Device", "cpu", env.Device)
}

func TestEnvFromEnviron_Unset(t *testing.T) {
	env, err := EnvFromEnviron([]string{"HOME=/root", "BENCHGATE_DEVICE=  "})
	if err != nil {
		t.Fatalf("EnvFromEnviron: %v", err)
	}
	if env.TotalPartitions != nil || env.PartitionID != nil {
		t.Errorf("expected nil partitions, got %v %v", env.TotalPartitions, env.PartitionID)
	}
	if len(env.Exclude) != 0 {
		t.Errorf("Exclude = %v, want empty", env.Exclude)
	}
	assertEqual(t, "Device", "", env.Device)
	assertEqualInt(t, "IntOr default", 4, IntOr(env.TotalPartitions, 4))
}

func TestEnvFromEnviron_NotANumber(t *testing.T) {
	_, err := EnvFromEnviron([]string{"BENCHGATE_TOTAL_PARTITIONS=many"})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "BENCHGATE_TOTAL_PARTITIONS") {
		t.Errorf("error should name the variable: %v", err)
	}
}
