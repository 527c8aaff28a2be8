package models

import "time"

// TutorInvite is a one-time code a student hands to a tutor
type TutorInvite struct {
	ID          int64      `json:"-" db:"id"`
	Code        string     `json:"code" db:"code"`
	StudentID   int64      `json:"studentId" db:"student_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UsedAt      *time.Time `json:"usedAt,omitempty" db:"used_at"`
	UsedBy      *int64     `json:"usedBy,omitempty" db:"used_by"`
	ExpiresAt   time.Time  `json:"expiresAt" db:"expires_at"`
	StudentName string     `json:"studentName,omitempty" db:"student_name"` // Populated via JOIN
}

func (i *TutorInvite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *TutorInvite) IsUsed() bool {
	return i.UsedAt != nil
}

func (i *TutorInvite) IsValid() bool {
	return !i.IsExpired() && !i.IsUsed()
}

// TutorLink grants a tutor write access to a student's word bank
type TutorLink struct {
	TutorID     int64     `json:"tutorId" db:"tutor_id"`
	StudentID   int64     `json:"studentId" db:"student_id"`
	StudentName string    `json:"studentName,omitempty" db:"student_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
