package meeting

import "testing"

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		days    string
		tod     string
		want    Schedule
		wantErr bool
	}{
		{
			name: "single day",
			days: "wed", tod: "10:00",
			want: Schedule{WeekInterval: 1, Days: "wed", Hour: 10, Minute: 0},
		},
		{
			name: "day list",
			days: "mon,tue,fri", tod: "09:30",
			want: Schedule{WeekInterval: 1, Days: "mon,tue,fri", Hour: 9, Minute: 30},
		},
		{
			name: "range",
			days: "tue-sat", tod: "16:45",
			want: Schedule{WeekInterval: 1, Days: "tue-sat", Hour: 16, Minute: 45},
		},
		{
			name: "interval",
			days: "mon-fri/3", tod: "10:00",
			want: Schedule{WeekInterval: 3, Days: "mon-fri", Hour: 10, Minute: 0},
		},
		{
			name: "uppercase",
			days: "MON,FRI/2", tod: "08:05",
			want: Schedule{WeekInterval: 2, Days: "mon,fri", Hour: 8, Minute: 5},
		},
		{name: "unknown day", days: "monday", tod: "10:00", wantErr: true},
		{name: "bad range end", days: "mon-funday", tod: "10:00", wantErr: true},
		{name: "zero interval", days: "mon/0", tod: "10:00", wantErr: true},
		{name: "negative interval", days: "mon/-1", tod: "10:00", wantErr: true},
		{name: "empty days", days: "", tod: "10:00", wantErr: true},
		{name: "missing colon", days: "mon", tod: "1000", wantErr: true},
		{name: "hour out of range", days: "mon", tod: "24:00", wantErr: true},
		{name: "minute out of range", days: "mon", tod: "10:60", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchedule(tt.days, tt.tod)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSchedule(%q, %q) = %+v, want error", tt.days, tt.tod, got)
				}
				if !IsValidation(err) {
					t.Fatalf("want a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q, %q): %v", tt.days, tt.tod, err)
			}
			if got != tt.want {
				t.Errorf("ParseSchedule(%q, %q) = %+v, want %+v", tt.days, tt.tod, got, tt.want)
			}
		})
	}
}

func TestScheduleString(t *testing.T) {
	t.Parallel()

	s := Schedule{WeekInterval: 2, Days: "mon,fri", Hour: 10, Minute: 0}
	if got, want := s.String(), "every 2 weeks on mon,fri at 10:00"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	s = Schedule{WeekInterval: 1, Days: "wed", Hour: 9, Minute: 5}
	if got, want := s.String(), "every week on wed at 09:05"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
